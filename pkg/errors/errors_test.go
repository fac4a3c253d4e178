package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorPredicates(t *testing.T) {
	t.Run("Should classify wrapped app errors", func(t *testing.T) {
		err := fmt.Errorf("store: %w", NewNotFoundError("todo"))

		assert.True(t, IsNotFound(err))
		assert.False(t, IsValidation(err))
		assert.True(t, IsDomainOutcome(err))
	})

	t.Run("Should treat noop as a domain outcome", func(t *testing.T) {
		err := NewNoopError("text unchanged")

		assert.True(t, IsNoop(err))
		assert.True(t, IsDomainOutcome(err))
		assert.Equal(t, http.StatusOK, err.HTTPStatus)
	})

	t.Run("Should not classify persistence errors as domain outcomes", func(t *testing.T) {
		err := NewPersistenceError("create todo", stderrors.New("connection refused"))

		assert.True(t, IsPersistence(err))
		assert.False(t, IsDomainOutcome(err))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Should classify unauthorized errors", func(t *testing.T) {
		err := NewUnauthorizedError("")

		assert.True(t, IsUnauthorized(err))
		assert.False(t, IsDomainOutcome(err))
		assert.Equal(t, "unauthorized", err.Message)
	})
}

func TestAsPersistence(t *testing.T) {
	t.Run("Should wrap plain errors", func(t *testing.T) {
		err := AsPersistence("delete todo", stderrors.New("boom"))
		assert.True(t, IsPersistence(err))
	})

	t.Run("Should keep typed errors", func(t *testing.T) {
		err := AsPersistence("delete todo", NewNotFoundError("todo"))
		assert.True(t, IsNotFound(err))
	})

	t.Run("Should pass nil through", func(t *testing.T) {
		assert.NoError(t, AsPersistence("delete todo", nil))
	})
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", NewValidationError("text cannot be empty"), http.StatusBadRequest, "VALIDATION"},
		{"not found", NewNotFoundError("todo"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", NewConflictError("busy"), http.StatusConflict, "CONFLICT"},
		{"persistence", NewPersistenceError("insert", stderrors.New("down")), http.StatusBadGateway, "PERSISTENCE"},
		{"plain error", stderrors.New("unexpected"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
			w := httptest.NewRecorder()

			handler.Handle(w, req, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantType, body.Type)
		})
	}
}

func TestErrorHandler_Middleware(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestErrorHandler_ResponseBody(t *testing.T) {
	t.Run("Should hide untyped error messages unless debugging", func(t *testing.T) {
		for _, debug := range []bool{false, true} {
			w := httptest.NewRecorder()
			NewErrorHandler(zap.NewNop(), debug).
				Handle(w, httptest.NewRequest(http.MethodGet, "/", nil), stderrors.New("db password wrong"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if debug {
				assert.Equal(t, "db password wrong", body.Message)
			} else {
				assert.Equal(t, "An internal error occurred", body.Message)
			}
		}
	})

	t.Run("Should pass details through", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := NewConflictError("operation already in progress").
			WithDetails(map[string]interface{}{"todoID": "abc"})

		NewErrorHandler(zap.NewNop(), false).Handle(w, httptest.NewRequest(http.MethodDelete, "/", nil), err)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "abc", body.Details["todoID"])
	})
}

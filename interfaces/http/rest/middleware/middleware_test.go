package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"todolist-backend/pkg/auth"
	pkgerrors "todolist-backend/pkg/errors"
)

type stubAuthenticator struct {
	user *auth.UserContext
	err  error
}

func (s stubAuthenticator) Authenticate(*http.Request) (*auth.UserContext, error) {
	return s.user, s.err
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.requests = append(f.requests, recordedRequest{method, route, status})
}

func ownerEcho(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write([]byte(user.UserID))
}

func TestAuthenticate(t *testing.T) {
	errorHandler := pkgerrors.NewErrorHandler(zap.NewNop(), false)

	t.Run("Should put the user in the request context", func(t *testing.T) {
		mw := Authenticate(stubAuthenticator{user: &auth.UserContext{UserID: "user-1"}}, errorHandler, zap.NewNop())
		w := httptest.NewRecorder()

		mw(http.HandlerFunc(ownerEcho)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", w.Body.String())
	})

	t.Run("Should answer 401 for an expired token", func(t *testing.T) {
		mw := Authenticate(stubAuthenticator{err: auth.ErrExpiredToken}, errorHandler, zap.NewNop())
		w := httptest.NewRecorder()

		mw(http.HandlerFunc(ownerEcho)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "token has expired")
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, int64(http.StatusTeapot), entry.ContextMap()["status"])
	assert.Equal(t, "/api/v1/todos", entry.ContextMap()["path"])
}

func TestMetrics(t *testing.T) {
	recorder := &fakeRecorder{}
	router := chi.NewRouter()
	router.Use(Metrics(recorder))
	router.Get("/todos/{todoID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/todos/abc", nil))

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, recordedRequest{http.MethodGet, "/todos/{todoID}", http.StatusNoContent}, recorder.requests[0])
}

func TestTracing(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Tracing("test"))
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

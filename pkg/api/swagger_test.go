package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSwaggerSpecAsJSON(t *testing.T) {
	doc, err := GetSwaggerSpecAsJSON()
	require.NoError(t, err)

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &spec))
	assert.Equal(t, "2.0", spec["swagger"])

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/todos")
	assert.Contains(t, paths, "/todos/{todoID}/history")
	assert.Contains(t, paths, "/stats")
}

func TestDocHandler(t *testing.T) {
	require.NoError(t, Register(""))
	require.NoError(t, Register(""))

	w := httptest.NewRecorder()
	DocHandler()(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.True(t, json.Valid(w.Body.Bytes()))
}

func TestSwaggerHandler(t *testing.T) {
	t.Run("Should serve YAML by default", func(t *testing.T) {
		w := httptest.NewRecorder()
		SwaggerHandler()(w, httptest.NewRequest(http.MethodGet, "/swagger/spec", nil))

		assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "swagger: \"2.0\"")
	})

	t.Run("Should serve JSON when asked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()

		SwaggerHandler()(w, req)

		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.True(t, json.Valid(w.Body.Bytes()))
	})
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRouter_Healthz(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRequestLogger_RequestID(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-1")
	assert.Equal(t, "req-1", env.serve(req).Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-GitHub-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	assert.Equal(t, "72d3162e-cc78-11e3-81ab-4c9367dc0958", env.serve(req).Header().Get("X-Request-ID"))

	generated := env.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
}

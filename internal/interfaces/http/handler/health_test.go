package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"ideaplan-api/internal/config"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Ready(t *testing.T) {
	cfg := &config.Config{Persistence: config.PersistenceConfig{Driver: "supabase"}}

	ok := NewHealthHandler(pingFunc(func(context.Context) error { return nil }), nil, cfg)
	r := gin.New()
	r.GET("/ready", ok.Ready)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"supabase":{"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"redis":{"status":"disabled"}`)

	failing := NewHealthHandler(pingFunc(func(context.Context) error { return errors.New("down") }), nil, cfg)
	r = gin.New()
	r.GET("/ready", failing.Ready)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not_ready")
}

package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	hc := NewHealthController(nil)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	hc.HealthCheck(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestHealthCheckFailingDependency(t *testing.T) {
	hc := NewHealthController(map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	rr := httptest.NewRecorder()

	hc.HealthCheck(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status": "unavailable", "failing": "database"}`, rr.Body.String())
}

func TestLiveIgnoresDependencies(t *testing.T) {
	hc := NewHealthController(map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return errors.New("down") }),
	})
	rr := httptest.NewRecorder()

	hc.Live(rr, httptest.NewRequest("GET", "/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront-backend/pkg/config"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	return cfg
}

func decodeChecks(t *testing.T, body []byte) (string, map[string]string) {
	t.Helper()
	var envelope struct {
		Data struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Data.Status, envelope.Data.Checks
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(healthConfig())(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get("X-Storefront-Env"))
}

func TestHealthReadyAllUp(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	HealthReady(healthConfig(), nil, map[string]Pinger{
		"database": up,
		"redis":    up,
	})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	status, checks := decodeChecks(t, rec.Body.Bytes())
	require.Equal(t, "ready", status)
	require.Equal(t, map[string]string{"database": "up", "redis": "up"}, checks)
}

func TestHealthReadyReportsFailures(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthReady(healthConfig(), nil, map[string]Pinger{
		"database": up,
		"redis":    down,
		"pubsub":   nil,
	})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	status, checks := decodeChecks(t, rec.Body.Bytes())
	require.Equal(t, "degraded", status)
	require.Equal(t, map[string]string{
		"database": "up",
		"redis":    "down",
		"pubsub":   "skipped",
	}, checks)
}

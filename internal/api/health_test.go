// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/charboard/internal/api"
)

type readyBody struct {
	Data struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
		Checks   []struct {
			Name string `json:"name"`
			OK   bool   `json:"ok"`
		} `json:"checks"`
	} `json:"data"`
}

/*
TestReadiness covers the healthy, degraded and cache-less cases.
*/
func TestReadiness(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		deps   api.HealthDependencies
		status int
		want   string
		checks int
	}{
		{"no_cache", api.HealthDependencies{}, http.StatusOK, "ready", 0},
		{"cache_up", api.HealthDependencies{CheckCache: func(context.Context) error { return nil }}, http.StatusOK, "ready", 1},
		{"cache_down", api.HealthDependencies{CheckCache: func(context.Context) error { return errors.New("refused") }}, http.StatusServiceUnavailable, "degraded", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.deps.LiveSessions = func() int { return 3 }
			_, readiness := api.NewHealthHandlers(tt.deps, logger)

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, recorder.Code)

			var body readyBody
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
			assert.Equal(t, tt.want, body.Data.Status)
			assert.Equal(t, 3, body.Data.Sessions)
			assert.Len(t, body.Data.Checks, tt.checks)
		})
	}
}

func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"app":"charboard"`)
}

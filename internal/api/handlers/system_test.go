package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	slowOK := func(ctx context.Context) error {
		select {
		case <-time.After(50 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	failing := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantLabel  string
		wantChecks map[string]string
	}{
		{"no checks", nil, http.StatusOK, "ready", map[string]string{}},
		{
			name:       "all healthy",
			checks:     []Check{{Name: "postgres", Fn: slowOK}, {Name: "storage", Fn: slowOK}},
			wantStatus: http.StatusOK,
			wantLabel:  "ready",
			wantChecks: map[string]string{"postgres": "ok", "storage": "ok"},
		},
		{
			name:       "failure does not cancel siblings",
			checks:     []Check{{Name: "recognizer", Fn: failing}, {Name: "postgres", Fn: slowOK}},
			wantStatus: http.StatusServiceUnavailable,
			wantLabel:  "not ready",
			wantChecks: map[string]string{"recognizer": "connection refused", "postgres": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/readyz", NewSystemHandler(tt.checks...).Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantLabel, resp.Status)
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

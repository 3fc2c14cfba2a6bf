package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assaymerge/internal/services"
	"assaymerge/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewHealthHandler(services.NewHealthService("v1.0.0-test", t.TempDir(), logger), logger)

	tests := []struct {
		name          string
		path          string
		expectStatus  string
		checkResponse func(t *testing.T, body map[string]interface{})
	}{
		{
			name:         "health",
			path:         "/",
			expectStatus: "ok",
		},
		{
			name:         "ready",
			path:         "/ready",
			expectStatus: "ready",
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				output := body["services"].(map[string]interface{})["output"].(map[string]interface{})
				assert.Equal(t, "ready", output["status"])
			},
		},
		{
			name:         "live",
			path:         "/live",
			expectStatus: "alive",
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body["runtime"], "go_version")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectStatus, body["status"])
			assert.Equal(t, "v1.0.0-test", body["version"])
			if tt.checkResponse != nil {
				tt.checkResponse(t, body)
			}
		})
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	missing := filepath.Join(t.TempDir(), "absent")
	handler := NewHealthHandler(services.NewHealthService("v1.0.0-test", missing, logger), logger)

	w := httptest.NewRecorder()
	handler.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"not_ready"`)
	assert.True(t, logs.ContainsMessage("ReadinessCheck: not ready"))
}

func TestHealthHandler_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewHealthHandler(services.NewHealthService("v1.0.0-test", t.TempDir(), logger), logger)

	w := httptest.NewRecorder()
	handler.Version(w, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "v1.0.0-test", body["version"])
	assert.Equal(t, "v1", body["api_version"])
	assert.Equal(t, "v1", body["output_format"])
}

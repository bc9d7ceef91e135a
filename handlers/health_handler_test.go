package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response.Status)
	assert.NotEmpty(t, response.Timestamp)
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()
	ok := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("no api key") }

	tests := []struct {
		name           string
		checks         map[string]Check
		expectedStatus int
		expectedChecks map[string]string
	}{
		{
			name:           "no checks",
			checks:         nil,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "all healthy",
			checks:         map[string]Check{"provider": ok, "store": ok},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{"provider": "healthy", "store": "healthy"},
		},
		{
			name:           "provider not configured",
			checks:         map[string]Check{"provider": failing, "store": ok},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"provider": "unhealthy", "store": "healthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checks, logger)

			w := httptest.NewRecorder()
			handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "healthy", response.Status)
			} else {
				assert.Equal(t, "unhealthy", response.Status)
			}
			if tt.expectedChecks != nil {
				assert.Equal(t, tt.expectedChecks, response.Checks)
			}
		})
	}
}

package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"message": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		BotID string `json:"botId"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"botId":"b1"}`))
		var p payload
		require.NoError(t, DecodeJSON(r, &p))
		assert.Equal(t, "b1", p.BotID)
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		err := DecodeJSON(r, &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"botId":`))
		var p payload
		err := DecodeJSON(r, &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON")
	})

	t.Run("body over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"botId":"`+strings.Repeat("x", 100)+`"}`))
		r.Body = http.MaxBytesReader(w, r.Body, 16)
		var p payload
		assert.ErrorIs(t, DecodeJSON(r, &p), ErrBodyTooLarge)
	})
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	details := map[string]interface{}{"botId": "botId is required"}

	err := WriteBadRequest(w, "Invalid input", details)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err = json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "bad_request", response.Error)
	assert.Equal(t, "Invalid input", response.Message)
	assert.Equal(t, "botId is required", response.Details["botId"])
}

func TestWriteNotFound(t *testing.T) {
	tests := []struct {
		name            string
		message         string
		expectedMessage string
	}{
		{
			name:            "with custom message",
			message:         "Bot not found",
			expectedMessage: "Bot not found",
		},
		{
			name:            "with empty message",
			message:         "",
			expectedMessage: "Resource not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := WriteNotFound(w, tt.message)
			require.NoError(t, err)

			assert.Equal(t, http.StatusNotFound, w.Code)

			var response ErrorResponse
			err = json.NewDecoder(w.Body).Decode(&response)
			require.NoError(t, err)
			assert.Equal(t, "not_found", response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
		})
	}
}

func TestWriteRequestTooLarge(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteRequestTooLarge(w))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "request_too_large", response.Error)
}

func TestWriteBadGateway(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteBadGateway(w, "could not fetch this URL", map[string]interface{}{"url": "https://x.example"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "bad_gateway", response.Error)
	assert.Equal(t, "could not fetch this URL", response.Message)
	assert.Equal(t, "https://x.example", response.Details["url"])
}

func TestWriteInternalServerError(t *testing.T) {
	tests := []struct {
		name            string
		message         string
		expectedMessage string
	}{
		{
			name:            "with custom message",
			message:         "server error",
			expectedMessage: "server error",
		},
		{
			name:            "with empty message",
			message:         "",
			expectedMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := WriteInternalServerError(w, tt.message)
			require.NoError(t, err)

			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var response ErrorResponse
			err = json.NewDecoder(w.Body).Decode(&response)
			require.NoError(t, err)
			assert.Equal(t, "internal_error", response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name              string
		status            int
		expectedErrorType string
	}{
		{"bad request", http.StatusBadRequest, "bad_request"},
		{"not found", http.StatusNotFound, "not_found"},
		{"method not allowed", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"too large", http.StatusRequestEntityTooLarge, "request_too_large"},
		{"bad gateway", http.StatusBadGateway, "bad_gateway"},
		{"unavailable", http.StatusServiceUnavailable, "service_unavailable"},
		{"internal error", http.StatusInternalServerError, "internal_error"},
		{"unknown status", http.StatusTeapot, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := WriteError(w, tt.status, "Test message", nil)
			require.NoError(t, err)

			assert.Equal(t, tt.status, w.Code)

			var response ErrorResponse
			err = json.NewDecoder(w.Body).Decode(&response)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedErrorType, response.Error)
			assert.Equal(t, "Test message", response.Message)
		})
	}
}

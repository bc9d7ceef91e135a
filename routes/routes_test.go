package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/kb-assistant/app"
	"github.com/upb/kb-assistant/config"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, providerURL string) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 10,
		},
		Providers: config.ProvidersConfig{
			OpenAI: config.OpenAIConfig{
				APIKey:          "sk-test",
				BaseURL:         providerURL,
				Model:           "gpt-4o-mini",
				UseResponsesAPI: true,
				Timeout:         5 * time.Second,
			},
		},
		Knowledge: config.KnowledgeConfig{MaxContextChars: 4000},
		Fetch:     config.FetchConfig{Timeout: 5 * time.Second},
		Observability: config.ObservabilityConfig{
			LogLevel:       "debug",
			MetricsEnabled: true,
		},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	server := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestKnowledgeBaseFlow(t *testing.T) {
	var gotInput string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotInput = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"resp_1","model":"gpt-4o-mini","output_text":"Cats are mammals."}`))
	}))
	defer provider.Close()

	server := newTestServer(t, provider.URL)

	resp, body := post(t, server.URL+"/kb/set-instructions", `{"botId":"b1","instructions":"Be terse."}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	resp, body = post(t, server.URL+"/kb/add-text", `{"botId":"b1","text":"cats are mammals"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, body = post(t, server.URL+"/chat", `{"botId":"b1","message":"what are cats"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cats are mammals.", body["reply"])
	assert.Equal(t, "resp_1", body["conversationId"])
	assert.Contains(t, gotInput, "Be terse.")
	assert.Contains(t, gotInput, "cats are mammals")

	getResp, err := http.Get(server.URL + "/kb/b1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var bot map[string]interface{}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&bot))
	assert.Equal(t, "b1", bot["botId"])
	assert.Equal(t, float64(1), bot["count"])
}

func TestChatProviderFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer provider.Close()

	server := newTestServer(t, provider.URL)

	resp, body := post(t, server.URL+"/chat", `{"botId":"b1","message":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "server error", body["message"])
}

func TestRequestErrors(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:1")

	t.Run("missing botId", func(t *testing.T) {
		resp, _ := post(t, server.URL+"/kb/add-text", `{"text":"hello"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid json", func(t *testing.T) {
		resp, _ := post(t, server.URL+"/chat", `{`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("body too large", func(t *testing.T) {
		text := strings.Repeat("a", 2<<10)
		resp, _ := post(t, server.URL+"/kb/add-text", `{"botId":"b1","text":"`+text+`"}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "not_found", body["error"])
		assert.Equal(t, "route not found", body["message"])
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/chat")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer provider.Close()

	server := newTestServer(t, provider.URL)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, server.URL+"/kb/add-text", `{"botId":"b1","text":"hello"}`)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metrics, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "kb_documents_added_total")
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:1")

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestReadinessWithUnreachableProvider(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

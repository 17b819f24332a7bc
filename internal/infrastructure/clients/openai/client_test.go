package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/clients/openai"
	"github.com/zatekoja/medanalyzer/pkg/config"
)

func newClient(t *testing.T, baseURL string) *openai.Client {
	t.Helper()
	client, err := openai.NewClient(&config.OpenAIConfig{
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestClient_Generate_ReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "the prompt", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"answer"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	text, err := newClient(t, srv.URL+"/v1").Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestClient_Generate_APIErrorBecomesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL+"/v1").Generate(context.Background(), "prompt")
	require.Error(t, err)

	var upstreamErr *providers.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", upstreamErr.Body)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := openai.NewClient(&config.OpenAIConfig{})
	assert.Error(t, err)
}

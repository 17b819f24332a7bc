package rapidapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/clients/rapidapi"
	"github.com/zatekoja/medanalyzer/pkg/config"
)

func newClient(t *testing.T, url string) *rapidapi.Client {
	t.Helper()
	client, err := rapidapi.NewClient(&config.RapidAPIConfig{
		APIKey:  "test-key",
		Host:    "diagnosis.example",
		URL:     url,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestClient_Diagnose_SendsPayloadAndHeaders(t *testing.T) {
	var got providers.DiagnosisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, "diagnosis.example", r.Header.Get("x-rapidapi-host"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.JSONEq(t, `{"age":30,"gender":"male","symptoms":"headache, fever","duration":"1-3_days"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conditions":[{"name":"Migraine","probability":0.7}]}` + "\n"))
	}))
	defer srv.Close()

	res, err := newClient(t, srv.URL).Diagnose(context.Background(), providers.DiagnosisRequest{
		Age:      30,
		Gender:   "male",
		Symptoms: "headache, fever",
		Duration: "1-3_days",
	})
	require.NoError(t, err)

	assert.Equal(t, 30, got.Age)
	assert.JSONEq(t, `{"conditions":[{"name":"Migraine","probability":0.7}]}`, string(res.Raw))
}

func TestClient_Diagnose_Non2xxReturnsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"You have exceeded the rate limit"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Diagnose(context.Background(), providers.DiagnosisRequest{Age: 30})
	require.Error(t, err)

	var upstreamErr *providers.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
	assert.Equal(t, `{"message":"You have exceeded the rate limit"}`, upstreamErr.Body)
}

func TestClient_Diagnose_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url).Diagnose(context.Background(), providers.DiagnosisRequest{Age: 30})
	assert.ErrorContains(t, err, "diagnosis request failed")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := rapidapi.NewClient(&config.RapidAPIConfig{URL: "http://x"})
	assert.Error(t, err)
}

package rapidapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
	"github.com/zatekoja/medanalyzer/pkg/config"
)

const (
	serviceName     = "rapidapi-diagnosis"
	maxResponseSize = 1 << 20
)

// Client calls the RapidAPI "AI Medical Diagnosis API".
type Client struct {
	apiKey     string
	host       string
	url        string
	httpClient *http.Client
}

// NewClient creates a diagnosis client from configuration.
func NewClient(cfg *config.RapidAPIConfig) (*Client, error) {
	return NewClientWithHTTPClient(cfg, nil)
}

// NewClientWithHTTPClient allows overriding the HTTP client (used for tests).
func NewClientWithHTTPClient(cfg *config.RapidAPIConfig, httpClient *http.Client) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("rapidapi key is required")
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rapidapi url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		host:       cfg.Host,
		url:        cfg.URL,
		httpClient: httpClient,
	}, nil
}

// Diagnose posts the symptom payload and returns the raw response body.
// A non-2xx answer is returned as *providers.UpstreamError with the body.
func (c *Client) Diagnose(ctx context.Context, in providers.DiagnosisRequest) (*entities.DiagnosisResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordUpstreamCall(ctx, serviceName, "", 0, time.Since(start), err)
		return nil, fmt.Errorf("diagnosis request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		observability.RecordUpstreamCall(ctx, serviceName, "", resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("failed to read diagnosis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErr := &providers.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
		observability.RecordUpstreamCall(ctx, serviceName, "", resp.StatusCode, time.Since(start), upstreamErr)
		return nil, upstreamErr
	}

	observability.RecordUpstreamCall(ctx, serviceName, "", resp.StatusCode, time.Since(start), nil)
	return &entities.DiagnosisResult{Raw: json.RawMessage(bytes.TrimSpace(payload))}, nil
}

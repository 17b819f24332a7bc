package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
	"github.com/zatekoja/medanalyzer/pkg/config"
	"google.golang.org/genai"
)

const serviceName = "gemini"

// Client completes prompts with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client backed by the Gemini Developer API.
func NewClient(ctx context.Context, cfg *config.GeminiConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Name implements providers.GenerationProvider.
func (c *Client) Name() string { return serviceName }

// Model implements providers.GenerationProvider.
func (c *Client) Model() string { return c.model }

// Generate sends a single-turn prompt and returns the concatenated text parts.
// An empty answer is not an error here; the caller validates the shape.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		err = toUpstreamError(err)
		observability.RecordUpstreamCall(ctx, serviceName, c.model, statusOf(err), time.Since(start), err)
		return "", err
	}

	observability.RecordUpstreamCall(ctx, serviceName, c.model, http.StatusOK, time.Since(start), nil)
	return res.Text(), nil
}

func toUpstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &providers.UpstreamError{Service: serviceName, StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &providers.UpstreamError{Service: serviceName, StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini generate content: %w", err)
}

func statusOf(err error) int {
	var upstreamErr *providers.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode
	}
	return 0
}

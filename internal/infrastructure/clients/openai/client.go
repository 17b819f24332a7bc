package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
	"github.com/zatekoja/medanalyzer/pkg/config"
)

const serviceName = "openai"

// Client completes prompts with the OpenAI chat completions API.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Name implements providers.GenerationProvider.
func (c *Client) Name() string { return serviceName }

// Model implements providers.GenerationProvider.
func (c *Client) Model() string { return c.model }

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		err = toUpstreamError(err)
		observability.RecordUpstreamCall(ctx, serviceName, c.model, statusOf(err), time.Since(start), err)
		return "", err
	}

	observability.RecordUpstreamCall(ctx, serviceName, c.model, http.StatusOK, time.Since(start), nil)
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toUpstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &providers.UpstreamError{Service: serviceName, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &providers.UpstreamError{Service: serviceName, StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return fmt.Errorf("openai chat completion: %w", err)
}

func statusOf(err error) int {
	var upstreamErr *providers.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode
	}
	return 0
}

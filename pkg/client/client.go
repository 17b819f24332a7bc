// Package client is a Go client for the MedAnalyzer HTTP API.
package client

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
)

const maxResponseBytes = 1 << 20

type (
	// Submission is the symptom form sent to the service
	Submission = entities.Submission
	// AnalysisResult is the five-section answer
	AnalysisResult = entities.AnalysisResult
	// FieldError describes one invalid form field
	FieldError = entities.FieldError
	// Gender is "male" or "female"
	Gender = entities.Gender
	// Duration is one of the symptom duration buckets
	Duration = entities.Duration
)

// ErrInvalidSubmission is returned, wrapped, when a submission fails local
// validation. No request is sent in that case.
var ErrInvalidSubmission = errors.New("invalid submission")

// ValidationError lists the fields that failed local validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidSubmission, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSubmission
}

// APIError is a non-2xx answer from the service
type APIError struct {
	StatusCode  int
	Message     string          `json:"error"`
	Details     json.RawMessage `json:"details,omitempty"`
	RawResponse string          `json:"rawResponse,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("analysis failed with status %d: %s", e.StatusCode, e.Message)
}

// Client submits symptom forms to a MedAnalyzer server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client with a custom HTTP client
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Analyze validates the submission locally and sends it once.
func (c *Client) Analyze(ctx context.Context, sub *Submission) (*AnalysisResult, error) {
	if sub == nil {
		return nil, &ValidationError{}
	}
	if fieldErrs := sub.Validate(); len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return nil, apiErr
	}

	result, err := entities.ParseAnalysisResult(body)
	if err != nil {
		return nil, fmt.Errorf("unexpected response: %w", err)
	}
	return result, nil
}

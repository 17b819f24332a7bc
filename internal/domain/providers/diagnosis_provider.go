package providers

import (
	"context"
	"fmt"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
)

// DiagnosisRequest is the payload sent to the symptom diagnosis service
type DiagnosisRequest struct {
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Symptoms string `json:"symptoms"`
	Duration string `json:"duration"`
}

// DiagnosisProvider turns symptom text into candidate conditions
type DiagnosisProvider interface {
	Diagnose(ctx context.Context, req DiagnosisRequest) (*entities.DiagnosisResult, error)
}

// UpstreamError is returned by outbound clients when the remote service
// answers with a non-2xx status.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed with status %d", e.Service, e.StatusCode)
}

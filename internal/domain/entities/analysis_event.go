package entities

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisOutcome is the terminal state of one analysis request
type AnalysisOutcome string

const (
	AnalysisOutcomeSucceeded AnalysisOutcome = "succeeded"
	AnalysisOutcomeFailed    AnalysisOutcome = "failed"
)

// AnalysisEvent is an operational record of a finished analysis.
// It carries no free text from the patient.
type AnalysisEvent struct {
	ID         string          `json:"id"`
	Outcome    AnalysisOutcome `json:"outcome"`
	ErrorType  string          `json:"error_type,omitempty"`
	Provider   string          `json:"provider"`
	Model      string          `json:"model"`
	Gender     Gender          `json:"gender,omitempty"`
	Duration   Duration        `json:"duration,omitempty"`
	SymptomCnt int             `json:"symptom_count"`
	LatencyMs  int64           `json:"latency_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewAnalysisEvent creates an event for a finished request
func NewAnalysisEvent(sub *Submission, outcome AnalysisOutcome, errorType, provider, model string, latency time.Duration) *AnalysisEvent {
	event := &AnalysisEvent{
		ID:        uuid.NewString(),
		Outcome:   outcome,
		ErrorType: errorType,
		Provider:  provider,
		Model:     model,
		LatencyMs: latency.Milliseconds(),
		Timestamp: time.Now().UTC(),
	}
	if sub != nil {
		event.Gender = sub.Gender
		event.Duration = sub.Duration
		event.SymptomCnt = len(sub.Symptoms())
	}
	return event
}

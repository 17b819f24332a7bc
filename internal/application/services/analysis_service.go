package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medanalyzer/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const eventPublishTimeout = 2 * time.Second

// AnalysisOptions configures an AnalysisService.
type AnalysisOptions struct {
	// Language selects the prompt template ("ru" or "en").
	Language string
	// MissingCredentials names credentials that were not configured at
	// startup. When non-empty every request fails before any outbound call.
	MissingCredentials []string
	EventBus           providers.EventBus
	EventChannel       string
	Metrics            *observability.Metrics
}

// AnalysisService turns a submission into an AnalysisResult by calling the
// diagnosis service and then the generation service, once each.
type AnalysisService struct {
	diagnosis  providers.DiagnosisProvider
	generation providers.GenerationProvider
	opts       AnalysisOptions
}

// NewAnalysisService creates a new analysis service. Either provider may be
// nil when its credential is missing.
func NewAnalysisService(
	diagnosis providers.DiagnosisProvider,
	generation providers.GenerationProvider,
	opts AnalysisOptions,
) *AnalysisService {
	if opts.Language == "" {
		opts.Language = "ru"
	}
	if opts.EventChannel == "" {
		opts.EventChannel = providers.EventChannelAnalyses
	}
	return &AnalysisService{
		diagnosis:  diagnosis,
		generation: generation,
		opts:       opts,
	}
}

// Analyze runs the full request sequence. Errors are *apperrors.AppError of
// type CONFIGURATION, VALIDATION, EXTERNAL or PARSE.
func (s *AnalysisService) Analyze(ctx context.Context, sub *entities.Submission) (*entities.AnalysisResult, error) {
	ctx, span := observability.StartSpan(ctx, "AnalysisService.Analyze")
	defer span.End()
	observability.SetSpanAttributes(span, s.spanAttributes()...)

	start := time.Now()
	result, err := s.analyze(ctx, sub)
	s.finish(ctx, sub, err, time.Since(start))
	observability.RecordError(span, err)
	return result, err
}

func (s *AnalysisService) analyze(ctx context.Context, sub *entities.Submission) (*entities.AnalysisResult, error) {
	logger := observability.LoggerFromContext(ctx)

	if err := s.checkConfigured(); err != nil {
		logger.Error().Str("error", err.Message).Msg("analysis rejected: missing configuration")
		return nil, err
	}

	if sub == nil {
		return nil, apperrors.NewValidationError("submission is required", nil)
	}
	if fieldErrs := sub.Validate(); len(fieldErrs) > 0 {
		return nil, apperrors.NewValidationError("invalid submission", fieldErrs)
	}
	age, _ := sub.AgeYears()

	diagnosis, err := s.diagnosis.Diagnose(ctx, providers.DiagnosisRequest{
		Age:      age,
		Gender:   string(sub.Gender),
		Symptoms: sub.SymptomText(),
		Duration: string(sub.Duration),
	})
	if err != nil {
		return nil, s.externalError(ctx, "diagnosis", err)
	}

	prompt, err := buildAnalysisPrompt(s.opts.Language, sub, diagnosis)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build prompt", err)
	}

	text, err := s.generation.Generate(ctx, prompt)
	if err != nil {
		return nil, s.externalError(ctx, "generation", err)
	}

	result, err := entities.ParseAnalysisResult([]byte(stripCodeFence(text)))
	if err != nil {
		logger.Error().
			Err(err).
			Str("provider", s.generation.Name()).
			Str("raw_response", text).
			Msg("failed to parse generated analysis")
		return nil, apperrors.NewParseError("Failed to parse AI analysis", text, err)
	}

	return result, nil
}

func (s *AnalysisService) checkConfigured() *apperrors.AppError {
	missing := append([]string(nil), s.opts.MissingCredentials...)
	if len(missing) == 0 {
		if s.diagnosis == nil {
			missing = append(missing, "diagnosis provider")
		}
		if s.generation == nil {
			missing = append(missing, "generation provider")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.NewConfigurationError(strings.Join(missing, ", ") + " is not set")
}

// externalError wraps an outbound failure, attaching the upstream body when
// there is one and the error message otherwise.
func (s *AnalysisService) externalError(ctx context.Context, step string, err error) *apperrors.AppError {
	logger := observability.LoggerFromContext(ctx)

	var details interface{} = err.Error()
	var upstreamErr *providers.UpstreamError
	if errors.As(err, &upstreamErr) {
		details = upstreamDetails(upstreamErr.Body, err)
		logger.Error().
			Str("step", step).
			Str("service", upstreamErr.Service).
			Int("status", upstreamErr.StatusCode).
			Str("body", upstreamErr.Body).
			Msg("upstream request failed")
	} else {
		logger.Error().Err(err).Str("step", step).Msg("upstream request failed")
	}

	return apperrors.NewExternalError("Failed to analyze symptoms with external API", details, fmt.Errorf("%s: %w", step, err))
}

func upstreamDetails(body string, err error) interface{} {
	if body == "" {
		return err.Error()
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}

func (s *AnalysisService) finish(ctx context.Context, sub *entities.Submission, err error, latency time.Duration) {
	outcome := entities.AnalysisOutcomeSucceeded
	errorType := ""
	if err != nil {
		outcome = entities.AnalysisOutcomeFailed
		errorType = string(apperrors.ErrorTypeInternal)
		if appErr, ok := apperrors.As(err); ok {
			errorType = string(appErr.Type)
		}
	}

	observability.RecordAnalysis(ctx, s.opts.Metrics, string(outcome), errorType)

	provider, model := "", ""
	if s.generation != nil {
		provider, model = s.generation.Name(), s.generation.Model()
	}

	logger := observability.LoggerFromContext(ctx)
	logger.Info().
		Str("outcome", string(outcome)).
		Str("error_type", errorType).
		Str("provider", provider).
		Dur("latency", latency).
		Msg("analysis finished")

	if s.opts.EventBus == nil {
		return
	}

	event := entities.NewAnalysisEvent(sub, outcome, errorType, provider, model, latency)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if pubErr := s.opts.EventBus.Publish(pubCtx, s.opts.EventChannel, event); pubErr != nil {
		logger.Warn().Err(pubErr).Str("event_id", event.ID).Msg("failed to publish analysis event")
	}
}

func (s *AnalysisService) spanAttributes() []attribute.KeyValue {
	if s.generation == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("generation.provider", s.generation.Name()),
		attribute.String("generation.model", s.generation.Model()),
	}
}

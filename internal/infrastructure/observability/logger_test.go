package observability_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
)

func TestLoggerFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	ctx := observability.WithRequestID(context.Background(), "req-123")
	observability.LoggerFromContext(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Equal(t, "req-123", observability.RequestIDFromContext(ctx))
}

func TestLoggerFromContext_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	observability.LoggerFromContext(context.Background()).Info().Msg("hello")

	assert.NotContains(t, buf.String(), "request_id")
}

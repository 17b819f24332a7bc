package providers

import (
	"context"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.AnalysisEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AnalysisEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelAnalyses is the default channel for finished analyses
const EventChannelAnalyses = "analysis:events"

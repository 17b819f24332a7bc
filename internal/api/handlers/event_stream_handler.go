package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zatekoja/medanalyzer/internal/domain/entities"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
)

const defaultHeartbeatInterval = 30 * time.Second

// EventStreamHandler streams analysis events to operators over Server-Sent Events
type EventStreamHandler struct {
	eventBus  providers.EventBus
	channel   string
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[chan *entities.AnalysisEvent]struct{}
}

// NewEventStreamHandler creates a handler streaming events published on channel
func NewEventStreamHandler(eventBus providers.EventBus, channel string) *EventStreamHandler {
	if channel == "" {
		channel = providers.EventChannelAnalyses
	}
	return &EventStreamHandler{
		eventBus:  eventBus,
		channel:   channel,
		heartbeat: defaultHeartbeatInterval,
		clients:   make(map[chan *entities.AnalysisEvent]struct{}),
	}
}

// SetHeartbeatInterval overrides the keep-alive interval
func (h *EventStreamHandler) SetHeartbeatInterval(d time.Duration) {
	if d > 0 {
		h.heartbeat = d
	}
}

// StreamAnalyses handles GET /api/stream/analyses
// An optional ?outcome=succeeded|failed query narrows the stream.
func (h *EventStreamHandler) StreamAnalyses(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context())

	outcome := entities.AnalysisOutcome(r.URL.Query().Get("outcome"))
	switch outcome {
	case "", entities.AnalysisOutcomeSucceeded, entities.AnalysisOutcomeFailed:
	default:
		respondWithError(w, http.StatusBadRequest, "outcome must be succeeded or failed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	eventChan, err := h.eventBus.Subscribe(ctx, h.channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", h.channel).Msg("failed to subscribe to event channel")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	clientChan := make(chan *entities.AnalysisEvent, 50)
	h.registerClient(clientChan)
	defer h.unregisterClient(clientChan)

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   h.channel,
		"outcome":   outcome,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	go forwardEvents(ctx, eventChan, clientChan, outcome)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("client disconnected from analysis stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, ok := <-clientChan:
			if !ok {
				return
			}
			h.sendEvent(w, "analysis", event)
			flusher.Flush()
		}
	}
}

// Stats handles GET /api/stream/stats
func (h *EventStreamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]int{
		"connected_clients": h.ClientCount(),
	})
}

// ClientCount returns the number of connected stream clients
func (h *EventStreamHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// forwardEvents copies matching events to the client, dropping them when the
// client falls behind. clientChan is closed when the subscription ends.
func forwardEvents(ctx context.Context, eventChan <-chan *entities.AnalysisEvent, clientChan chan<- *entities.AnalysisEvent, outcome entities.AnalysisOutcome) {
	defer close(clientChan)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || (outcome != "" && event.Outcome != outcome) {
				continue
			}
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}

func (h *EventStreamHandler) registerClient(clientChan chan *entities.AnalysisEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[clientChan] = struct{}{}
}

func (h *EventStreamHandler) unregisterClient(clientChan chan *entities.AnalysisEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, clientChan)
}

func (h *EventStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Error().Err(err).Str("event", eventType).Msg("failed to marshal stream event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

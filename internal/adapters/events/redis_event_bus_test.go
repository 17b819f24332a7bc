package events_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medanalyzer/internal/adapters/events"
	"github.com/zatekoja/medanalyzer/internal/domain/entities"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	redisclient "github.com/zatekoja/medanalyzer/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medanalyzer/pkg/config"
)

func newTestBus(t *testing.T) providers.EventBus {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := redisclient.NewClient(context.Background(), &config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	bus := events.NewRedisEventBus(client)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func waitForEvent(t *testing.T, ch <-chan *entities.AnalysisEvent) *entities.AnalysisEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRedisEventBus_FanOut(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1, err := bus.Subscribe(ctx, providers.EventChannelAnalyses)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx, providers.EventChannelAnalyses)
	require.NoError(t, err)

	event := entities.NewAnalysisEvent(nil, entities.AnalysisOutcomeFailed, "EXTERNAL", "gemini", "gemini-1.5-flash", 20*time.Millisecond)
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelAnalyses, event))

	got1 := waitForEvent(t, sub1)
	got2 := waitForEvent(t, sub2)
	assert.Equal(t, event.ID, got1.ID)
	assert.Equal(t, event.ID, got2.ID)
	assert.Equal(t, "EXTERNAL", got1.ErrorType)
	assert.Equal(t, entities.AnalysisOutcomeFailed, got2.Outcome)
}

func TestRedisEventBus_SubscriberClosedOnCancel(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := bus.Subscribe(ctx, providers.EventChannelAnalyses)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel was not closed")
	}
}

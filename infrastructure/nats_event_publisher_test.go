package infrastructure

import (
	"context"
	"encoding/json"
	"testing"

	"casino/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSEventPublisher_LocalHandlersRunBeforeTheWire(t *testing.T) {
	publisher := NewNATSEventPublisher(NewNATSClient("nats://localhost:4222"))

	var handled []events.Event
	publisher.RegisterLocalHandler(events.EventTypeDistributionFailed, func(ctx context.Context, event events.Event) error {
		handled = append(handled, event)
		return nil
	})

	// The client never connected, so the wire publish fails; local handlers
	// must still have run by then.
	err := publisher.Publish(events.DistributionFailedEvent{BetID: "bet-1", Reason: "pool locked"})

	require.Error(t, err)
	require.Len(t, handled, 1)
	failure, ok := handled[0].(events.DistributionFailedEvent)
	require.True(t, ok)
	assert.Equal(t, "bet-1", failure.BetID)
}

func TestNATSEventPublisher_LocalHandlersFilterByType(t *testing.T) {
	publisher := NewNATSEventPublisher(NewNATSClient("nats://localhost:4222"))

	called := false
	publisher.RegisterLocalHandler(events.EventTypeDistributionFailed, func(ctx context.Context, event events.Event) error {
		called = true
		return nil
	})

	_ = publisher.Publish(events.BetSettledEvent{BetID: "bet-1"})

	assert.False(t, called, "handler must only see its registered event type")
}

func TestDecodeDistributionFailure(t *testing.T) {
	payload, err := json.Marshal(events.DistributionFailedEvent{
		BetID:  "bet-1",
		Reason: "reward_pool: deadlock detected",
	})
	require.NoError(t, err)

	data, err := json.Marshal(eventEnvelope{
		EventID:       "evt-1",
		EventType:     string(events.EventTypeDistributionFailed),
		SourceService: "wallet-engine",
		Payload:       payload,
	})
	require.NoError(t, err)

	event, err := decodeDistributionFailure(data)

	require.NoError(t, err)
	assert.Equal(t, "bet-1", event.BetID)
	assert.Equal(t, "reward_pool: deadlock detected", event.Reason)
}

func TestDecodeDistributionFailure_RejectsGarbage(t *testing.T) {
	_, err := decodeDistributionFailure([]byte("not json"))
	assert.Error(t, err)
}

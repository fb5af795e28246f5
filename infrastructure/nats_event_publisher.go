package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"casino/domain/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// eventEnvelope wraps every published event with routing metadata.
type eventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// subjectForEvent maps a domain event to its NATS subject.
func subjectForEvent(event events.Event) string {
	return fmt.Sprintf("casino.events.%s", event.Type())
}

// allEventSubjects returns the subject space claimed by the domain stream.
func allEventSubjects() []string {
	return []string{"casino.events.*"}
}

// NATSEventPublisher implements the EventPublisher interface using NATS
type NATSEventPublisher struct {
	natsClient    *NATSClient
	localHandlers map[events.EventType][]func(context.Context, events.Event) error
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(natsClient *NATSClient) *NATSEventPublisher {
	return &NATSEventPublisher{
		natsClient:    natsClient,
		localHandlers: make(map[events.EventType][]func(context.Context, events.Event) error),
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()
	eventType := event.Type()

	// Invoke any local handlers before going over the wire
	if handlers, exists := p.localHandlers[eventType]; exists {
		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				log.WithFields(log.Fields{
					"eventType": eventType,
					"error":     err,
				}).Error("Local event handler failed")
				// Continue; local handler errors must not block publishing
			}
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := eventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(eventType),
		Timestamp:     time.Now().UTC(),
		SourceService: "wallet-engine",
		Payload:       payload,
	}

	envelopeData, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := subjectForEvent(event)
	if err := p.natsClient.Publish(ctx, subject, envelopeData); err != nil {
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": eventType,
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// RegisterLocalHandler registers a handler that will be invoked locally for
// events, in the same process that publishes them
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(p.localHandlers[eventType]),
	}).Info("Registered local event handler")
}

// EnsureDomainEventStream ensures the casino_events stream exists
func (p *NATSEventPublisher) EnsureDomainEventStream() error {
	return p.natsClient.ensureStream("casino_events", allEventSubjects())
}

// SubscribeDistributionFailures registers a durable consumer for
// distribution failure events, including those published by peer
// instances, so every instance can pull the retry sweep forward.
func (p *NATSEventPublisher) SubscribeDistributionFailures(handler func(events.DistributionFailedEvent)) error {
	subject := fmt.Sprintf("casino.events.%s", events.EventTypeDistributionFailed)
	return p.natsClient.Subscribe(subject, func(data []byte) error {
		event, err := decodeDistributionFailure(data)
		if err != nil {
			return err
		}
		handler(event)
		return nil
	})
}

func decodeDistributionFailure(data []byte) (events.DistributionFailedEvent, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return events.DistributionFailedEvent{}, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	var event events.DistributionFailedEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return events.DistributionFailedEvent{}, fmt.Errorf("failed to unmarshal distribution failure payload: %w", err)
	}
	return event, nil
}

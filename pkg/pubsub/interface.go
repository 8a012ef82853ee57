package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp.
// The key is used for partitioning where the transport supports it.
func NewEvent(eventType, key string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Key:       key,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus. Publish hands the event to
// the transport and returns; it does not wait for consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// NoopPublisher discards every event. Used when notifications are disabled.
type NoopPublisher struct{}

// Publish discards the event.
func (NoopPublisher) Publish(context.Context, string, *Event) error { return nil }

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }

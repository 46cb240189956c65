package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Supports Go channels (Community) or NATS (Pro).
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings (Community tier)
	ChannelBufferSize int

	// NATS settings (Pro tier)
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds

	// NATSQueueGroup load-balances subscribers across replicas when set.
	NATSQueueGroup string
}

// Topics for the intervention pipeline.
const (
	TopicAlertRequested  = "alert.requested"
	TopicAlertDispatched = "alert.dispatched"
	TopicAlertFailed     = "alert.failed"
	TopicOutcomeLogged   = "outcome.logged"
)

// AlertFailure is the payload published on TopicAlertFailed.
type AlertFailure struct {
	CustomerID string `json:"customerId"`
	Error      string `json:"error"`
	TraceID    string `json:"traceId,omitempty"`
}

// AlertRequest is the payload published on TopicAlertRequested.
type AlertRequest struct {
	CustomerID  string `json:"customerId"`
	RequestedBy string `json:"requestedBy,omitempty"`
	TraceID     string `json:"traceId,omitempty"`
}

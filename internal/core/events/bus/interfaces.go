package bus

import (
	"errors"
	"time"
)

var (
	ErrUnknownTopic = errors.New("unknown topic")
	ErrNilHandler   = errors.New("nil handler")
)

// EventBus is the engine-side notification bus: an in-process pub/sub bus
// whose topics are notification bus names and whose subscriptions are scoped
// to an address.
//
// Key characteristics:
// - Topics must be declared with CreateTopic before anyone subscribes.
// - Address scoping: a subscription with address "" receives every event of
//   its topic; otherwise only events whose Source equals the address.
// - Ordered, synchronous delivery: handlers run in subscription order in the
//   publisher's goroutine, and events of one topic are delivered FIFO.
// - Handlers may publish or subscribe re-entrantly; delivery works on a
//   snapshot of the subscriber list.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are produced only when observers are registered.
type EventBus interface {
	// CreateTopic declares a topic. Repeat declarations are idempotent.
	CreateTopic(name string, config TopicConfig) error
	// HasTopic reports whether a topic was declared.
	HasTopic(name string) bool
	// SubscribeTopic registers a handler for every event of topic whose Source
	// matches address ("" matches all).
	SubscribeTopic(topic, address string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	// PublishToTopic delivers the event synchronously.
	PublishToTopic(topic string, event Event) error
	// PublishWithFilters applies filters before delivery; if any filter returns false,
	// the event is dropped and not delivered to handlers.
	PublishWithFilters(topic string, event Event, filters ...EventFilter) error
	// PublishBatch publishes events in order and aggregates errors across them.
	PublishBatch(topic string, events ...Event) error

	// AddObserver registers an observer to receive metrics callbacks.
	AddObserver(obs EventBusObserver)
	// RemoveObserver unregisters a previously added observer.
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a best-effort snapshot of accumulated metrics.
	GetMetrics() EventBusMetrics
	// GetTopics returns a snapshot list of known topics.
	GetTopics() []TopicInfo
}

// Event is an immutable message transported by the EventBus.
//
// Fields:
// - Type: the notification callback name.
// - Source: the address the event was fired at ("" for broadcast notifications).
// - Timestamp: creation time of the event.
// - Data: callback arguments.
// - Priority: optional priority hint (unused by the in-memory bus).
// - Metadata: small key/value annotations for additional context.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Priority() int
	Metadata() map[string]any
}

type (
	// EventHandler is a callback invoked per delivered event.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered.
	EventFilter func(event Event) bool
)

// Subscription represents a registered handler bound to a topic and address.
type Subscription interface {
	ID() string
	Topic() string
	Address() string
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

// TopicConfig describes topic-level settings.
type TopicConfig struct {
	// Addressed topics reject events without a source.
	Addressed bool
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, durationMicros int64)
}

// EventBusMetrics is updated only while at least one observer is registered.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
	Topics            uint64
}

// TopicInfo provides a minimal snapshot about a topic.
type TopicInfo struct {
	Name string
	Subs int
}

package bus

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// simpleEvent is a basic implementation of Event.
type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
	prio    int
	meta    map[string]any
}

func (e simpleEvent) Type() string             { return e.typeStr }
func (e simpleEvent) Source() string           { return e.source }
func (e simpleEvent) Timestamp() time.Time     { return e.ts }
func (e simpleEvent) Data() any                { return e.data }
func (e simpleEvent) Priority() int            { return e.prio }
func (e simpleEvent) Metadata() map[string]any { return e.meta }

// NewEvent creates a simple Event implementation.
func NewEvent(typ, src string, data any, priority int, metadata map[string]any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data, prio: priority, meta: metadata}
}

type subscription struct {
	id      string
	topic   string
	address string
	handler EventHandler
	active  bool
	cancel  func()
}

func (s *subscription) ID() string      { return s.id }
func (s *subscription) Topic() string   { return s.topic }
func (s *subscription) Address() string { return s.address }
func (s *subscription) IsActive() bool  { return s.active }
func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// inMemoryBus is a thread-safe implementation of EventBus with ordered topics and observers.
type inMemoryBus struct {
	mu sync.RWMutex
	// subs: topic -> subscriptions in registration order
	subs      map[string][]*subscription
	topics    map[string]TopicConfig
	metrics   EventBusMetrics
	observers map[EventBusObserver]struct{}
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		subs:      make(map[string][]*subscription),
		topics:    make(map[string]TopicConfig),
		observers: make(map[EventBusObserver]struct{}),
	}
}

func (b *inMemoryBus) CreateTopic(name string, config TopicConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.topics[name]; exists {
		return nil
	}
	b.topics[name] = config
	return nil
}

func (b *inMemoryBus) HasTopic(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.topics[name]
	return ok
}

func (b *inMemoryBus) SubscribeTopic(topic, address string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.topics[topic]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	s := &subscription{id: uuid.NewString(), topic: topic, address: address, handler: handler, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !s.active {
			return
		}
		s.active = false
		list := b.subs[topic]
		for i, cur := range list {
			if cur == s {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	b.subs[topic] = append(b.subs[topic], s)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) PublishWithFilters(topic string, event Event, filters ...EventFilter) error {
	for _, f := range filters {
		if !f(event) {
			b.mu.Lock()
			if len(b.observers) > 0 {
				b.metrics.DroppedByFilters += 1
			}
			b.mu.Unlock()
			return nil
		}
	}
	return b.deliver(topic, event)
}

func (b *inMemoryBus) PublishBatch(topic string, events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.deliver(topic, e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) GetTopics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.topics))
	for name := range b.topics {
		out = append(out, TopicInfo{Name: name, Subs: len(b.subs[name])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (b *inMemoryBus) deliver(topic string, event Event) error {
	start := time.Now()
	b.mu.RLock()
	cfg, known := b.topics[topic]
	if !known {
		b.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if cfg.Addressed && event.Source() == "" {
		b.mu.RUnlock()
		return fmt.Errorf("topic %s requires an address for %s", topic, event.Type())
	}
	subs := make([]*subscription, 0, len(b.subs[topic]))
	for _, s := range b.subs[topic] {
		if s.address == "" || s.address == event.Source() {
			subs = append(subs, s)
		}
	}
	observers := make([]EventBusObserver, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(topic, event.Type(), event)
	}

	var all error
	delivered := 0
	for _, s := range subs {
		// a handler earlier in this delivery may have cancelled s
		b.mu.RLock()
		active := s.active
		b.mu.RUnlock()
		if !active {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		dur := time.Since(start).Microseconds()
		for _, obs := range observers {
			obs.OnDelivered(topic, event.Type(), delivered, all, dur)
		}
		b.mu.Lock()
		b.metrics.Published += 1
		b.metrics.DeliveredHandlers += uint64(delivered)
		if all != nil {
			b.metrics.Errors += 1
		}
		b.metrics.Topics = uint64(len(b.topics))
		var subsCount uint64
		for _, list := range b.subs {
			subsCount += uint64(len(list))
		}
		b.metrics.SubscribersActive = subsCount
		b.mu.Unlock()
	}
	return all
}

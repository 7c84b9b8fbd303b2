package bus

import (
	"errors"
	"testing"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_, _ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_, _ string, handlers int, err error, _ int64) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func newBusWithTopic(t *testing.T, topic string) EventBus {
	t.Helper()
	b := New()
	if err := b.CreateTopic(topic, TopicConfig{}); err != nil {
		t.Fatalf("topic: %v", err)
	}
	return b
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := newBusWithTopic(t, "TickBus")
	called := 0
	_, err := b.SubscribeTopic("TickBus", "", func(e Event) error {
		called++
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.PublishToTopic("TickBus", NewEvent("OnTick", "", []any{0.016}, 0, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if called != 1 {
		t.Fatalf("handler called %d times", called)
	}
}

func TestSubscribeUnknownTopicFails(t *testing.T) {
	b := New()
	_, err := b.SubscribeTopic("NoSuchBus", "", func(Event) error { return nil })
	if !errors.Is(err, ErrUnknownTopic) {
		t.Fatalf("expected ErrUnknownTopic, got %v", err)
	}
}

func TestAddressScoping(t *testing.T) {
	b := newBusWithTopic(t, "CollisionNotificationBus")
	var forA, global int
	_, _ = b.SubscribeTopic("CollisionNotificationBus", "[1]", func(Event) error { forA++; return nil })
	_, _ = b.SubscribeTopic("CollisionNotificationBus", "", func(Event) error { global++; return nil })

	_ = b.PublishToTopic("CollisionNotificationBus", NewEvent("OnCollisionBegin", "[1]", nil, 0, nil))
	_ = b.PublishToTopic("CollisionNotificationBus", NewEvent("OnCollisionBegin", "[2]", nil, 0, nil))

	if forA != 1 || global != 2 {
		t.Fatalf("address scoping failed: forA=%d global=%d", forA, global)
	}
}

func TestDeliveryOrderIsRegistrationOrder(t *testing.T) {
	b := newBusWithTopic(t, "t")
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, _ = b.SubscribeTopic("t", "", func(Event) error { order = append(order, i); return nil })
	}
	_ = b.PublishToTopic("t", NewEvent("e", "", nil, 0, nil))
	for i, v := range order {
		if v != i {
			t.Fatalf("out of order delivery: %v", order)
		}
	}
}

func TestCancelDuringDeliverySkipsLaterHandler(t *testing.T) {
	b := newBusWithTopic(t, "t")
	var second Subscription
	secondCalls := 0
	_, _ = b.SubscribeTopic("t", "", func(Event) error {
		return second.Cancel()
	})
	second, _ = b.SubscribeTopic("t", "", func(Event) error { secondCalls++; return nil })

	_ = b.PublishToTopic("t", NewEvent("e", "", nil, 0, nil))
	if secondCalls != 0 {
		t.Fatalf("cancelled handler ran")
	}
	if second.IsActive() {
		t.Fatalf("subscription still active")
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := newBusWithTopic(t, "t")
	e1, e2 := errors.New("one"), errors.New("two")
	_, _ = b.SubscribeTopic("t", "", func(Event) error { return e1 })
	_, _ = b.SubscribeTopic("t", "", func(Event) error { return e2 })

	err := b.PublishToTopic("t", NewEvent("e", "", nil, 0, nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestAddressedTopicRejectsBroadcast(t *testing.T) {
	b := New()
	_ = b.CreateTopic("TriggerNotificationBus", TopicConfig{Addressed: true})
	if err := b.PublishToTopic("TriggerNotificationBus", NewEvent("OnTriggerEnter", "", nil, 0, nil)); err == nil {
		t.Fatalf("expected error for unaddressed event")
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := newBusWithTopic(t, "e")
	_, _ = b.SubscribeTopic("e", "", func(e Event) error { return nil })
	_ = b.PublishToTopic("e", NewEvent("e", "s", nil, 0, nil))
	m := b.GetMetrics()
	if m.Published != 0 || m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}
	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.PublishToTopic("e", NewEvent("e", "s", nil, 0, nil))
	m2 := b.GetMetrics()
	if m2.Published == 0 || m2.DeliveredHandlers == 0 {
		t.Fatalf("metrics should update with observer: %+v", m2)
	}
	if obs.publishCount == 0 || obs.deliveredCount == 0 {
		t.Fatalf("observer not called: %+v", obs)
	}
}

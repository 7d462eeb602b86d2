package messaging

import (
	"context"
	"testing"
	"time"

	"samiksha/internal/shared/events"
)

func TestBusDeliversToSubscribedTopic(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	err := bus.Subscribe(ctx, events.TopicResponseScored, "test-cg", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	envelope := events.Envelope{EventID: "event-1", EventType: events.TopicResponseScored}
	if err := bus.Publish(context.Background(), events.TopicResponseScored, envelope); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != "event-1" {
			t.Fatalf("expected event-1, got %s", got.EventID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	// A different topic must not reach this subscriber.
	if err := bus.Publish(context.Background(), "other.topic", events.Envelope{EventID: "event-2"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	select {
	case got := <-received:
		t.Fatalf("unexpected delivery: %s", got.EventID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusPublishWithoutSubscribersIsHarmless(t *testing.T) {
	bus := NewBus(nil)
	if err := bus.Publish(context.Background(), events.TopicResponseScored, events.Envelope{EventID: "event-1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

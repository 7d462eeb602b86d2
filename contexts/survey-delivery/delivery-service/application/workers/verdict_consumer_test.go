package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/adapters/memory"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	"samiksha/internal/shared/events"
)

// syncSubscriber replays queued envelopes through the handler at Subscribe
// time, standing in for the broker in tests.
type syncSubscriber struct {
	envelopes []events.Envelope
}

func (s *syncSubscriber) Subscribe(ctx context.Context, _ string, _ string, handler func(context.Context, events.Envelope) error) error {
	for _, envelope := range s.envelopes {
		if err := handler(ctx, envelope); err != nil {
			return err
		}
	}
	return nil
}

func TestVerdictConsumerFoldsScoredResponsesIntoProgress(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := seedSchedule("sched-1", entities.ScheduleStatusRunning, clock.Now().Add(-time.Hour), clock.Now().Add(time.Hour))
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, nil)

	payload := events.ResponseScoredPayload{
		ResponseID:      "response-1",
		ScheduleID:      schedule.ID,
		RespondentID:    "resp-1",
		Channel:         "web",
		DurationSeconds: 240,
		Status:          "verified",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	envelope := events.Envelope{
		EventID:       "event-1",
		EventType:     events.TopicResponseScored,
		SourceService: "paradata-service",
		OccurredAtUTC: clock.Now(),
		EntityType:    "response",
		EntityID:      payload.ResponseID,
		Payload:       body,
	}

	// The same envelope delivered twice must count the response once.
	consumer := VerdictConsumer{
		Subscriber: &syncSubscriber{envelopes: []events.Envelope{envelope, envelope}},
		Progress:   commands.Progress{Repository: store, Clock: clock},
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}

	final, _ := store.GetSchedule(context.Background(), schedule.ID)
	if final.RespondedCount != 1 {
		t.Fatalf("expected responded count 1 after duplicate delivery, got %d", final.RespondedCount)
	}
}

func TestVerdictConsumerRejectsUndecodablePayload(t *testing.T) {
	store := memory.NewStore(nil, nil)
	consumer := VerdictConsumer{
		Subscriber: &syncSubscriber{envelopes: []events.Envelope{{
			EventID: "event-1",
			Payload: []byte("{not json"),
		}}},
		Progress: commands.Progress{Repository: store},
	}
	if err := consumer.Start(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
)

func TestListDueSlotsOrdersByDueTime(t *testing.T) {
	store := NewStore(nil, nil)
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	slots := []entities.RespondentSlot{
		{ScheduleID: "sched-1", RespondentID: "resp-late", State: entities.SlotStatePending, NextAttemptAt: base.Add(time.Minute)},
		{ScheduleID: "sched-1", RespondentID: "resp-early", State: entities.SlotStatePending, NextAttemptAt: base.Add(-time.Minute)},
		{ScheduleID: "sched-1", RespondentID: "resp-future", State: entities.SlotStatePending, NextAttemptAt: base.Add(time.Hour)},
		{ScheduleID: "sched-1", RespondentID: "resp-done", State: entities.SlotStateDelivered, NextAttemptAt: base.Add(-time.Hour)},
		{ScheduleID: "sched-2", RespondentID: "resp-other", State: entities.SlotStatePending, NextAttemptAt: base.Add(-time.Hour)},
	}
	for _, slot := range slots {
		if err := store.CreateSlot(context.Background(), slot); err != nil {
			t.Fatalf("seed slot %s failed: %v", slot.RespondentID, err)
		}
	}

	due, err := store.ListDueSlots(context.Background(), "sched-1", base.Add(2*time.Minute), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due slots, got %d", len(due))
	}
	if due[0].RespondentID != "resp-early" || due[1].RespondentID != "resp-late" {
		t.Fatalf("expected due-time ordering, got %s then %s", due[0].RespondentID, due[1].RespondentID)
	}
}

func TestMarkResponseSeenScopedPerSchedule(t *testing.T) {
	store := NewStore(nil, nil)

	first, err := store.MarkResponseSeen(context.Background(), "sched-1", "response-1")
	if err != nil || !first {
		t.Fatalf("expected first sighting, got first=%v err=%v", first, err)
	}
	replay, err := store.MarkResponseSeen(context.Background(), "sched-1", "response-1")
	if err != nil || replay {
		t.Fatalf("expected duplicate suppressed, got first=%v err=%v", replay, err)
	}
	other, err := store.MarkResponseSeen(context.Background(), "sched-2", "response-1")
	if err != nil || !other {
		t.Fatalf("same response id under another schedule is a first sighting, got first=%v err=%v", other, err)
	}
}

func TestCounterIncrementsSurviveConcurrentWriters(t *testing.T) {
	schedule := entities.DeliverySchedule{ID: "sched-1", TargetCount: 100, Status: entities.ScheduleStatusRunning}
	store := NewStore([]entities.DeliverySchedule{schedule}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrementSentCount(context.Background(), "sched-1"); err != nil {
				t.Errorf("sent increment failed: %v", err)
			}
			if _, err := store.IncrementRespondedCount(context.Background(), "sched-1"); err != nil {
				t.Errorf("responded increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	final, err := store.GetSchedule(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if final.SentCount != 50 || final.RespondedCount != 50 {
		t.Fatalf("expected 50/50 counters, got %d/%d", final.SentCount, final.RespondedCount)
	}
}

package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/adapters/memory"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seedSchedule(id string, status entities.ScheduleStatus, start, end time.Time) entities.DeliverySchedule {
	return entities.DeliverySchedule{
		ID:             id,
		CampaignID:     "campaign-1",
		SurveyName:     "Sanitation Survey",
		District:       "Jaipur",
		PrimaryChannel: entities.ChannelKindWeb,
		Retry:          entities.RetryPolicy{MaxAttempts: 3, Interval: time.Hour},
		ScheduledStart: start,
		ScheduledEnd:   end,
		TargetCount:    10,
		Status:         status,
		CreatedAt:      start.Add(-time.Hour),
		UpdatedAt:      start.Add(-time.Hour),
	}
}

func TestLifecycleStartsDueSchedulesOnly(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	due := seedSchedule("sched-due", entities.ScheduleStatusScheduled, clock.Now().Add(-time.Minute), clock.Now().Add(8*time.Hour))
	future := seedSchedule("sched-future", entities.ScheduleStatusScheduled, clock.Now().Add(time.Hour), clock.Now().Add(9*time.Hour))
	store := memory.NewStore([]entities.DeliverySchedule{due, future}, nil)
	job := LifecycleJob{Repository: store, Clock: clock}

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	started, _ := store.GetSchedule(context.Background(), "sched-due")
	if started.Status != entities.ScheduleStatusRunning {
		t.Fatalf("expected due schedule running, got %s", started.Status)
	}
	waiting, _ := store.GetSchedule(context.Background(), "sched-future")
	if waiting.Status != entities.ScheduleStatusScheduled {
		t.Fatalf("expected future schedule untouched, got %s", waiting.Status)
	}
}

func TestLifecycleCompletesWhenWindowCloses(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := seedSchedule("sched-1", entities.ScheduleStatusRunning, clock.Now().Add(-9*time.Hour), clock.Now().Add(-time.Minute))
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, nil)
	job := LifecycleJob{Repository: store, Clock: clock}

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	final, _ := store.GetSchedule(context.Background(), "sched-1")
	if final.Status != entities.ScheduleStatusCompleted {
		t.Fatalf("expected completed after window closed, got %s", final.Status)
	}
}

func TestLifecycleCompletesWhenTargetReached(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := seedSchedule("sched-1", entities.ScheduleStatusRunning, clock.Now().Add(-time.Hour), clock.Now().Add(time.Hour))
	schedule.SentCount = schedule.TargetCount
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, nil)
	job := LifecycleJob{Repository: store, Clock: clock}

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	final, _ := store.GetSchedule(context.Background(), "sched-1")
	if final.Status != entities.ScheduleStatusCompleted {
		t.Fatalf("expected completed once target reached, got %s", final.Status)
	}
}

func TestLifecycleKeepsRunningBelowTargetInsideWindow(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := seedSchedule("sched-1", entities.ScheduleStatusRunning, clock.Now().Add(-time.Hour), clock.Now().Add(time.Hour))
	schedule.SentCount = schedule.TargetCount - 1
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, nil)
	job := LifecycleJob{Repository: store, Clock: clock}

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	final, _ := store.GetSchedule(context.Background(), "sched-1")
	if final.Status != entities.ScheduleStatusRunning {
		t.Fatalf("expected still running, got %s", final.Status)
	}
}

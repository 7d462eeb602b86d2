package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/adapters/channels"
	"samiksha/contexts/survey-delivery/delivery-service/adapters/memory"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
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

func seedChannels() []entities.Channel {
	return []entities.Channel{
		{Name: "Gov Chat", Kind: entities.ChannelKindChat, Status: entities.ChannelStatusActive},
		{Name: "District IVR", Kind: entities.ChannelKindIVR, Status: entities.ChannelStatusActive},
		{Name: "Web Portal", Kind: entities.ChannelKindWeb, Status: entities.ChannelStatusActive},
	}
}

func runningSchedule(now time.Time) entities.DeliverySchedule {
	return entities.DeliverySchedule{
		ID:               "sched-1",
		CampaignID:       "campaign-1",
		SurveyName:       "Water Access Survey",
		District:         "Ahmadabad",
		PrimaryChannel:   entities.ChannelKindChat,
		FallbackChannels: []entities.ChannelKind{entities.ChannelKindIVR},
		Retry:            entities.RetryPolicy{MaxAttempts: 2, Interval: time.Minute},
		ScheduledStart:   now.Add(-time.Hour),
		ScheduledEnd:     now.Add(time.Hour),
		TargetCount:      1,
		Status:           entities.ScheduleStatusRunning,
		CreatedAt:        now.Add(-time.Hour),
		UpdatedAt:        now.Add(-time.Hour),
	}
}

func newDispatcher(store *memory.Store, registry *channels.Registry, clock ports.Clock) *Dispatcher {
	return &Dispatcher{
		Repository: store,
		Adapters:   registry,
		Clock:      clock,
		IDGen:      store,
		Progress:   Progress{Repository: store, Clock: clock},
		Config:     DispatchConfig{DefaultTimeout: time.Second},
	}
}

func TestDispatchExhaustsRetriesThenFallbackChain(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := runningSchedule(clock.Now())
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, seedChannels())
	registry := channels.NewDefaultRegistry()
	for _, kind := range []entities.ChannelKind{entities.ChannelKindChat, entities.ChannelKindIVR} {
		adapter, _ := registry.Adapter(kind)
		adapter.(*channels.Simulated).SetScript(func(context.Context, ports.Dispatch) error {
			return domainerrors.ErrTransportFailure
		})
	}
	dispatcher := newDispatcher(store, registry, clock)

	slot := entities.RespondentSlot{
		ScheduleID:    schedule.ID,
		RespondentID:  "resp-1",
		State:         entities.SlotStatePending,
		NextAttemptAt: schedule.ScheduledStart,
	}
	if err := store.CreateSlot(context.Background(), slot); err != nil {
		t.Fatalf("seed slot failed: %v", err)
	}

	// Two attempts on the primary and two on the fallback before exhaustion.
	for cycle := 0; cycle < 6; cycle++ {
		if err := dispatcher.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d failed: %v", cycle, err)
		}
		clock.Advance(2 * time.Minute)
	}

	attempts, _ := store.ListAttempts(context.Background(), schedule.ID, "resp-1")
	if len(attempts) != 4 {
		t.Fatalf("expected 4 attempts before exhaustion, got %d", len(attempts))
	}
	if attempts[0].Channel != entities.ChannelKindChat || attempts[3].Channel != entities.ChannelKindIVR {
		t.Fatalf("expected chat retries then ivr fallback, got %s..%s", attempts[0].Channel, attempts[3].Channel)
	}

	updated, err := store.GetSlot(context.Background(), schedule.ID, "resp-1")
	if err != nil {
		t.Fatalf("get slot failed: %v", err)
	}
	if updated.State != entities.SlotStateExhausted {
		t.Fatalf("expected exhausted slot, got %s", updated.State)
	}
	if updated.LastError != domainerrors.ErrFallbackExhausted.Error() {
		t.Fatalf("expected fallback exhausted marker, got %q", updated.LastError)
	}

	final, _ := store.GetSchedule(context.Background(), schedule.ID)
	if final.SentCount != 0 {
		t.Fatalf("exhausted respondent must not count as sent, got %d", final.SentCount)
	}
}

func TestDispatchSkipsDownChannelWithoutConsumingAttempts(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := runningSchedule(clock.Now())
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, seedChannels())
	registry := channels.NewDefaultRegistry()
	chat, _ := registry.Adapter(entities.ChannelKindChat)
	chat.(*channels.Simulated).SetHealth(entities.ChannelHealthDown)
	dispatcher := newDispatcher(store, registry, clock)

	if err := store.CreateSlot(context.Background(), entities.RespondentSlot{
		ScheduleID:    schedule.ID,
		RespondentID:  "resp-1",
		State:         entities.SlotStatePending,
		NextAttemptAt: schedule.ScheduledStart,
	}); err != nil {
		t.Fatalf("seed slot failed: %v", err)
	}

	if err := dispatcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	attempts, _ := store.ListAttempts(context.Background(), schedule.ID, "resp-1")
	if len(attempts) != 1 {
		t.Fatalf("expected single attempt on the fallback, got %d", len(attempts))
	}
	if attempts[0].Channel != entities.ChannelKindIVR {
		t.Fatalf("expected delivery over ivr fallback, got %s", attempts[0].Channel)
	}
	if attempts[0].Outcome != entities.AttemptOutcomeDelivered {
		t.Fatalf("expected delivered outcome, got %s", attempts[0].Outcome)
	}

	slot, _ := store.GetSlot(context.Background(), schedule.ID, "resp-1")
	if slot.State != entities.SlotStateDelivered {
		t.Fatalf("expected delivered slot, got %s", slot.State)
	}
}

func TestDispatchDeliveredIncrementsSentOnce(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := runningSchedule(clock.Now())
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, seedChannels())
	dispatcher := newDispatcher(store, channels.NewDefaultRegistry(), clock)

	if err := store.CreateSlot(context.Background(), entities.RespondentSlot{
		ScheduleID:    schedule.ID,
		RespondentID:  "resp-1",
		State:         entities.SlotStatePending,
		NextAttemptAt: schedule.ScheduledStart,
	}); err != nil {
		t.Fatalf("seed slot failed: %v", err)
	}

	for cycle := 0; cycle < 3; cycle++ {
		if err := dispatcher.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d failed: %v", cycle, err)
		}
		clock.Advance(2 * time.Minute)
	}

	final, _ := store.GetSchedule(context.Background(), schedule.ID)
	if final.SentCount != 1 {
		t.Fatalf("expected sent count 1 after repeated cycles, got %d", final.SentCount)
	}
	count, _ := store.CountAttempts(context.Background(), schedule.ID)
	if count != 1 {
		t.Fatalf("delivered slot must not re-enter dispatch, got %d attempts", count)
	}
}

func TestDispatchDeadlineExpiryRecordsTimedOut(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := runningSchedule(clock.Now())
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, seedChannels())
	registry := channels.NewDefaultRegistry()
	chat, _ := registry.Adapter(entities.ChannelKindChat)
	chat.(*channels.Simulated).SetLatency(50 * time.Millisecond)
	dispatcher := newDispatcher(store, registry, clock)
	dispatcher.Config.Timeouts = map[entities.ChannelKind]time.Duration{
		entities.ChannelKindChat: 5 * time.Millisecond,
	}

	if err := store.CreateSlot(context.Background(), entities.RespondentSlot{
		ScheduleID:    schedule.ID,
		RespondentID:  "resp-1",
		State:         entities.SlotStatePending,
		NextAttemptAt: schedule.ScheduledStart,
	}); err != nil {
		t.Fatalf("seed slot failed: %v", err)
	}

	if err := dispatcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	attempts, _ := store.ListAttempts(context.Background(), schedule.ID, "resp-1")
	if len(attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(attempts))
	}
	if attempts[0].Outcome != entities.AttemptOutcomeTimedOut {
		t.Fatalf("expected timed_out outcome, got %s", attempts[0].Outcome)
	}
}

func TestCancelledScheduleReceivesNoFurtherAttempts(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)}
	schedule := runningSchedule(clock.Now())
	store := memory.NewStore([]entities.DeliverySchedule{schedule}, seedChannels())
	dispatcher := newDispatcher(store, channels.NewDefaultRegistry(), clock)
	useCase := UseCase{Repository: store, Clock: clock, IDGen: store, Dispatcher: dispatcher}

	if err := store.CreateSlot(context.Background(), entities.RespondentSlot{
		ScheduleID:    schedule.ID,
		RespondentID:  "resp-1",
		State:         entities.SlotStatePending,
		NextAttemptAt: schedule.ScheduledStart,
	}); err != nil {
		t.Fatalf("seed slot failed: %v", err)
	}

	if err := useCase.CancelSchedule(context.Background(), CancelScheduleCommand{ScheduleID: schedule.ID}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := dispatcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	count, _ := store.CountAttempts(context.Background(), schedule.ID)
	if count != 0 {
		t.Fatalf("cancelled schedule must not dispatch, got %d attempts", count)
	}
	final, _ := store.GetSchedule(context.Background(), schedule.ID)
	if final.Status != entities.ScheduleStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", final.Status)
	}
}

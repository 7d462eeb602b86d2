package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	application "samiksha/contexts/survey-delivery/delivery-service/application"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
)

const (
	defaultDispatchTimeout    = 30 * time.Second
	defaultChannelConcurrency = 8
	defaultDispatchBatchSize  = 100
	historicalTimeoutMultiple = 2
)

// DispatchConfig is the externally supplied dispatch tuning surface.
type DispatchConfig struct {
	// Timeouts overrides the per-channel send deadline. Channels without an
	// override derive their deadline from rolling average completion time.
	Timeouts map[entities.ChannelKind]time.Duration
	// Concurrency bounds in-flight sends per channel so a degraded channel
	// cannot starve the others.
	Concurrency    map[entities.ChannelKind]int64
	DefaultTimeout time.Duration
	BatchSize      int
}

// Dispatcher owns one dispatch cycle: it drains due respondent slots of
// running schedules, walks each slot through the retry/fallback policy and
// records the append-only attempt log. Slots dispatch independently and
// concurrently; the only cross-slot coupling is the per-channel semaphore.
type Dispatcher struct {
	Repository ports.Repository
	Adapters   ports.AdapterRegistry
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Progress   Progress
	Config     DispatchConfig
	Logger     *slog.Logger

	mu         sync.Mutex
	semaphores map[entities.ChannelKind]*semaphore.Weighted
	active     map[string]context.CancelFunc
	inFlight   map[string]int
}

// Abort cancels in-flight sends for one schedule without affecting others.
func (d *Dispatcher) Abort(scheduleID string) {
	d.mu.Lock()
	cancel := d.active[scheduleID]
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// InFlight reports how many attempts are currently pending for a schedule.
// The lifecycle job holds completion until this drains.
func (d *Dispatcher) InFlight(scheduleID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight[scheduleID]
}

// RunCycle processes one dispatch pass across all running schedules. A store
// failure fails the current cycle for that schedule only; the schedule is
// picked up again on the next pass.
func (d *Dispatcher) RunCycle(ctx context.Context) error {
	logger := application.ResolveLogger(d.Logger)
	schedules, err := d.Repository.ListSchedulesByStatus(ctx, entities.ScheduleStatusRunning, 0)
	if err != nil {
		logger.Error("dispatch cycle schedule list failed",
			"event", "dispatch_cycle_schedule_list_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	var firstErr error
	for _, schedule := range schedules {
		if err := d.dispatchSchedule(ctx, schedule); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logger.Error("dispatch cycle schedule failed",
				"event", "dispatch_cycle_schedule_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "worker",
				"schedule_id", schedule.ID,
				"error", err.Error(),
			)
		}
	}
	return firstErr
}

func (d *Dispatcher) dispatchSchedule(ctx context.Context, schedule entities.DeliverySchedule) error {
	logger := application.ResolveLogger(d.Logger)
	batch := d.Config.BatchSize
	if batch <= 0 {
		batch = defaultDispatchBatchSize
	}

	due, err := d.Repository.ListDueSlots(ctx, schedule.ID, d.now(), batch)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	scheduleCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	if d.active == nil {
		d.active = make(map[string]context.CancelFunc)
	}
	d.active[schedule.ID] = cancel
	d.mu.Unlock()
	defer func() {
		cancel()
		d.mu.Lock()
		if d.active[schedule.ID] != nil {
			delete(d.active, schedule.ID)
		}
		d.mu.Unlock()
	}()

	channels, err := d.channelSnapshot(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for idx := range due {
		slot := due[idx]
		wg.Add(1)
		d.trackInFlight(schedule.ID, 1)
		go func() {
			defer wg.Done()
			defer d.trackInFlight(schedule.ID, -1)
			if err := d.dispatchSlot(scheduleCtx, schedule, slot, channels); err != nil {
				logger.Warn("dispatch slot processing failed",
					"event", "dispatch_slot_processing_failed",
					"module", "survey-delivery/delivery-service",
					"layer", "worker",
					"schedule_id", schedule.ID,
					"respondent_id", slot.RespondentID,
					"error", err.Error(),
				)
			}
		}()
	}
	wg.Wait()

	logger.Debug("dispatch cycle schedule drained",
		"event", "dispatch_cycle_schedule_drained",
		"module", "survey-delivery/delivery-service",
		"layer", "worker",
		"schedule_id", schedule.ID,
		"slot_count", len(due),
	)
	return nil
}

func (d *Dispatcher) dispatchSlot(
	ctx context.Context,
	schedule entities.DeliverySchedule,
	slot entities.RespondentSlot,
	channels map[entities.ChannelKind]entities.Channel,
) error {
	logger := application.ResolveLogger(d.Logger)
	chain := schedule.ChannelChain()

	// Channel selection walks the chain from the slot's position. A channel
	// reporting down (or deactivated by operators) is skipped without
	// consuming an attempt, as if its retry budget were already spent.
	var adapter ports.ChannelAdapter
	for slot.ChannelIndex < len(chain) {
		kind := chain[slot.ChannelIndex]
		candidate, ok := d.Adapters.Adapter(kind)
		channel, known := channels[kind]
		unavailable := !ok || (known && channel.Status == entities.ChannelStatusInactive)
		if !unavailable {
			if health := candidate.CheckHealth(ctx); health == entities.ChannelHealthDown {
				unavailable = true
			}
		}
		if unavailable {
			logger.Warn("dispatch channel unavailable",
				"event", "dispatch_channel_unavailable",
				"module", "survey-delivery/delivery-service",
				"layer", "worker",
				"schedule_id", schedule.ID,
				"respondent_id", slot.RespondentID,
				"channel", string(kind),
			)
			slot.ChannelIndex++
			slot.AttemptsUsed = 0
			slot.LastError = domainerrors.ErrChannelUnavailable.Error()
			continue
		}
		adapter = candidate
		break
	}
	if adapter == nil {
		return d.markExhausted(ctx, schedule, slot)
	}

	kind := chain[slot.ChannelIndex]
	sem := d.channelSemaphore(kind)
	if err := sem.Acquire(ctx, 1); err != nil {
		// Schedule cancelled or cycle aborted while queued; the slot stays
		// due and no attempt is recorded.
		return nil
	}
	defer sem.Release(1)

	if ctx.Err() != nil {
		return nil
	}

	attemptID, err := d.IDGen.NewID(ctx)
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]string{
		"survey_name": schedule.SurveyName,
		"campaign_id": schedule.CampaignID,
		"district":    schedule.District,
	})

	sendCtx, cancelSend := context.WithTimeout(ctx, d.channelTimeout(kind, channels[kind]))
	sendErr := adapter.Send(sendCtx, ports.Dispatch{
		ScheduleID:   schedule.ID,
		RespondentID: slot.RespondentID,
		Channel:      kind,
		Payload:      payload,
	})
	cancelSend()

	outcome := classifyOutcome(sendCtx, sendErr)
	if outcome == entities.AttemptOutcomePending {
		// The schedule was cancelled mid-send; do not record an attempt.
		return nil
	}

	attempt := entities.DispatchAttempt{
		ID:            attemptID,
		ScheduleID:    schedule.ID,
		RespondentID:  slot.RespondentID,
		AttemptNumber: slot.TotalAttempts + 1,
		Channel:       kind,
		Outcome:       outcome,
		AttemptedAt:   d.now(),
	}
	if sendErr != nil {
		attempt.Error = sendErr.Error()
	}
	if err := d.Repository.AppendAttempt(ctx, attempt); err != nil {
		return err
	}

	return d.applyOutcome(ctx, schedule, slot, attempt)
}

func (d *Dispatcher) applyOutcome(
	ctx context.Context,
	schedule entities.DeliverySchedule,
	slot entities.RespondentSlot,
	attempt entities.DispatchAttempt,
) error {
	logger := application.ResolveLogger(d.Logger)
	now := d.now()
	slot.TotalAttempts = attempt.AttemptNumber
	slot.UpdatedAt = now

	switch attempt.Outcome {
	case entities.AttemptOutcomeDelivered:
		slot.State = entities.SlotStateDelivered
		slot.LastError = ""
		if err := d.Repository.UpdateSlot(ctx, slot); err != nil {
			return err
		}
		if err := d.Progress.RecordDispatchOutcome(ctx, attempt); err != nil {
			return err
		}
		logger.Info("dispatch attempt delivered",
			"event", "dispatch_attempt_delivered",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"schedule_id", schedule.ID,
			"respondent_id", slot.RespondentID,
			"channel", string(attempt.Channel),
			"attempt_number", attempt.AttemptNumber,
		)
		return nil

	case entities.AttemptOutcomeFailed, entities.AttemptOutcomeTimedOut:
		slot.AttemptsUsed++
		slot.LastError = attempt.Error
		if slot.AttemptsUsed >= schedule.Retry.MaxAttempts {
			slot.ChannelIndex++
			slot.AttemptsUsed = 0
		}
		if slot.ChannelIndex >= len(schedule.ChannelChain()) {
			return d.markExhausted(ctx, schedule, slot)
		}
		slot.NextAttemptAt = now.Add(schedule.Retry.Interval)
		if err := d.Repository.UpdateSlot(ctx, slot); err != nil {
			return err
		}
		if err := d.Progress.RecordDispatchOutcome(ctx, attempt); err != nil {
			return err
		}
		logger.Warn("dispatch attempt unsuccessful",
			"event", "dispatch_attempt_unsuccessful",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"schedule_id", schedule.ID,
			"respondent_id", slot.RespondentID,
			"channel", string(attempt.Channel),
			"outcome", string(attempt.Outcome),
			"attempt_number", attempt.AttemptNumber,
			"next_attempt_at_utc", slot.NextAttemptAt.Format(time.RFC3339),
		)
		return nil

	default:
		return fmt.Errorf("unexpected dispatch outcome %q", attempt.Outcome)
	}
}

// markExhausted is terminal per respondent: the slot leaves the dispatch pool
// and is surfaced to operators, never retried automatically.
func (d *Dispatcher) markExhausted(ctx context.Context, schedule entities.DeliverySchedule, slot entities.RespondentSlot) error {
	logger := application.ResolveLogger(d.Logger)
	slot.State = entities.SlotStateExhausted
	slot.LastError = domainerrors.ErrFallbackExhausted.Error()
	slot.UpdatedAt = d.now()
	if err := d.Repository.UpdateSlot(ctx, slot); err != nil {
		return err
	}
	logger.Warn("dispatch fallback exhausted",
		"event", "dispatch_fallback_exhausted",
		"module", "survey-delivery/delivery-service",
		"layer", "worker",
		"schedule_id", schedule.ID,
		"respondent_id", slot.RespondentID,
		"total_attempts", slot.TotalAttempts,
	)
	return nil
}

func (d *Dispatcher) channelSnapshot(ctx context.Context) (map[entities.ChannelKind]entities.Channel, error) {
	channels, err := d.Repository.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[entities.ChannelKind]entities.Channel, len(channels))
	for _, channel := range channels {
		snapshot[channel.Kind] = channel
	}
	return snapshot, nil
}

func (d *Dispatcher) channelSemaphore(kind entities.ChannelKind) *semaphore.Weighted {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.semaphores == nil {
		d.semaphores = make(map[entities.ChannelKind]*semaphore.Weighted)
	}
	sem, ok := d.semaphores[kind]
	if !ok {
		limit := d.Config.Concurrency[kind]
		if limit <= 0 {
			limit = defaultChannelConcurrency
		}
		sem = semaphore.NewWeighted(limit)
		d.semaphores[kind] = sem
	}
	return sem
}

// channelTimeout prefers the configured override, then derives a bound from
// the channel's historical average completion time, then the default.
func (d *Dispatcher) channelTimeout(kind entities.ChannelKind, channel entities.Channel) time.Duration {
	if timeout, ok := d.Config.Timeouts[kind]; ok && timeout > 0 {
		return timeout
	}
	if channel.AvgCompletionSeconds > 0 {
		return time.Duration(channel.AvgCompletionSeconds*float64(historicalTimeoutMultiple)) * time.Second
	}
	if d.Config.DefaultTimeout > 0 {
		return d.Config.DefaultTimeout
	}
	return defaultDispatchTimeout
}

func (d *Dispatcher) trackInFlight(scheduleID string, delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight == nil {
		d.inFlight = make(map[string]int)
	}
	d.inFlight[scheduleID] += delta
	if d.inFlight[scheduleID] <= 0 {
		delete(d.inFlight, scheduleID)
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Clock == nil {
		return time.Now().UTC()
	}
	return d.Clock.Now().UTC()
}

// classifyOutcome separates explicit transport rejection from deadline expiry;
// both retry under the same policy but feed channel health differently.
func classifyOutcome(sendCtx context.Context, sendErr error) entities.AttemptOutcome {
	switch {
	case sendErr == nil:
		return entities.AttemptOutcomeDelivered
	case errors.Is(sendErr, domainerrors.ErrTransportTimeout),
		errors.Is(sendErr, context.DeadlineExceeded),
		errors.Is(sendCtx.Err(), context.DeadlineExceeded):
		return entities.AttemptOutcomeTimedOut
	case errors.Is(sendErr, context.Canceled):
		return entities.AttemptOutcomePending
	default:
		return entities.AttemptOutcomeFailed
	}
}

package workers

import (
	"context"
	"log/slog"
	"time"

	application "samiksha/contexts/survey-delivery/delivery-service/application"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
)

// LifecycleJob drives the schedule state machine:
// scheduled → running at scheduledStart, running → completed when the window
// closes or the target is reached with no attempts still in flight.
// Cancellation is an external command and never originates here.
type LifecycleJob struct {
	Repository ports.Repository
	Clock      ports.Clock
	Dispatcher *commands.Dispatcher
	BatchSize  int
	Logger     *slog.Logger
}

func (j LifecycleJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := j.now()

	pending, err := j.Repository.ListSchedulesByStatus(ctx, entities.ScheduleStatusScheduled, limit)
	if err != nil {
		logger.Error("lifecycle scheduled list failed",
			"event", "lifecycle_scheduled_list_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	for _, schedule := range pending {
		if schedule.ScheduledStart.After(now) {
			continue
		}
		schedule.Status = entities.ScheduleStatusRunning
		schedule.UpdatedAt = now
		if err := j.Repository.UpdateSchedule(ctx, schedule); err != nil {
			logger.Error("lifecycle start transition failed",
				"event", "lifecycle_start_transition_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "worker",
				"schedule_id", schedule.ID,
				"error", err.Error(),
			)
			return err
		}
		logger.Info("delivery schedule started",
			"event", "delivery_schedule_started",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"schedule_id", schedule.ID,
			"scheduled_start_utc", schedule.ScheduledStart.Format(time.RFC3339),
		)
	}

	running, err := j.Repository.ListSchedulesByStatus(ctx, entities.ScheduleStatusRunning, limit)
	if err != nil {
		logger.Error("lifecycle running list failed",
			"event", "lifecycle_running_list_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	for _, schedule := range running {
		windowClosed := !schedule.ScheduledEnd.After(now)
		targetReached := schedule.SentCount >= schedule.TargetCount && j.inFlight(schedule.ID) == 0
		if !windowClosed && !targetReached {
			continue
		}
		schedule.Status = entities.ScheduleStatusCompleted
		schedule.UpdatedAt = now
		if err := j.Repository.UpdateSchedule(ctx, schedule); err != nil {
			logger.Error("lifecycle completion transition failed",
				"event", "lifecycle_completion_transition_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "worker",
				"schedule_id", schedule.ID,
				"error", err.Error(),
			)
			return err
		}
		logger.Info("delivery schedule completed",
			"event", "delivery_schedule_completed",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"schedule_id", schedule.ID,
			"sent_count", schedule.SentCount,
			"responded_count", schedule.RespondedCount,
			"target_count", schedule.TargetCount,
			"window_closed", windowClosed,
		)
	}
	return nil
}

func (j LifecycleJob) inFlight(scheduleID string) int {
	if j.Dispatcher == nil {
		return 0
	}
	return j.Dispatcher.InFlight(scheduleID)
}

func (j LifecycleJob) now() time.Time {
	if j.Clock == nil {
		return time.Now().UTC()
	}
	return j.Clock.Now().UTC()
}

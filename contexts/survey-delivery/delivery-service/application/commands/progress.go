package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "samiksha/contexts/survey-delivery/delivery-service/application"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
	"samiksha/internal/shared/events"
)

// Progress maintains the live target/sent/responded counters and the rolling
// channel statistics. Counter mutations go through the repository's atomic
// increments, so concurrent outcome and verdict streams touching the same
// schedule never lose updates.
type Progress struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

// RecordDispatchOutcome updates schedule and channel counters for a terminal
// attempt. The sent counter increments exactly once per respondent: the
// dispatcher only reports a delivered outcome on the slot's pending→delivered
// transition, and delivered slots never re-enter dispatch.
func (p Progress) RecordDispatchOutcome(ctx context.Context, attempt entities.DispatchAttempt) error {
	logger := application.ResolveLogger(p.Logger)

	if attempt.Outcome == entities.AttemptOutcomeDelivered {
		schedule, err := p.Repository.IncrementSentCount(ctx, attempt.ScheduleID)
		if err != nil {
			logger.Error("progress sent increment failed",
				"event", "progress_sent_increment_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "application",
				"schedule_id", attempt.ScheduleID,
				"respondent_id", attempt.RespondentID,
				"error", err.Error(),
			)
			return err
		}
		logger.Info("progress sent incremented",
			"event", "progress_sent_incremented",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", schedule.ID,
			"sent_count", schedule.SentCount,
			"target_count", schedule.TargetCount,
		)
	}

	return p.updateChannelAfterOutcome(ctx, attempt)
}

// RecordScoredResponse advances the responded counter once per distinct
// response id and refreshes the channel's rolling response statistics.
func (p Progress) RecordScoredResponse(ctx context.Context, payload events.ResponseScoredPayload) error {
	logger := application.ResolveLogger(p.Logger)
	scheduleID := strings.TrimSpace(payload.ScheduleID)
	responseID := strings.TrimSpace(payload.ResponseID)
	if scheduleID == "" || responseID == "" {
		logger.Warn("progress scored response missing identity",
			"event", "progress_scored_response_missing_identity",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"response_id", responseID,
		)
		return domainerrors.ErrInvalidScheduleInput
	}

	first, err := p.Repository.MarkResponseSeen(ctx, scheduleID, responseID)
	if err != nil {
		logger.Error("progress response dedup failed",
			"event", "progress_response_dedup_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"response_id", responseID,
			"error", err.Error(),
		)
		return err
	}
	if !first {
		logger.Debug("progress scored response duplicate ignored",
			"event", "progress_scored_response_duplicate",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"response_id", responseID,
		)
		return nil
	}

	schedule, err := p.Repository.IncrementRespondedCount(ctx, scheduleID)
	if err != nil {
		logger.Error("progress responded increment failed",
			"event", "progress_responded_increment_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"response_id", responseID,
			"error", err.Error(),
		)
		return err
	}
	if schedule.RespondedCount > schedule.TargetCount {
		// Over-delivery is reported, never rejected or silently clamped.
		logger.Warn("progress over delivery detected",
			"event", "progress_over_delivery_detected",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", schedule.ID,
			"responded_count", schedule.RespondedCount,
			"target_count", schedule.TargetCount,
		)
	}

	return p.updateChannelAfterResponse(ctx, payload)
}

// BuildProgress shapes the outbound progress feed for one schedule. Percent
// is responded/target truncated and capped for display; over-delivery is
// surfaced through the dedicated flag instead.
func BuildProgress(schedule entities.DeliverySchedule) entities.Progress {
	percent := 0
	if schedule.TargetCount > 0 {
		percent = schedule.RespondedCount * 100 / schedule.TargetCount
	}
	over := schedule.RespondedCount > schedule.TargetCount
	if percent > 100 {
		percent = 100
	}
	return entities.Progress{
		ScheduleID:     schedule.ID,
		TargetCount:    schedule.TargetCount,
		SentCount:      schedule.SentCount,
		RespondedCount: schedule.RespondedCount,
		Status:         schedule.Status,
		Percent:        percent,
		OverDelivered:  over,
	}
}

func (p Progress) updateChannelAfterOutcome(ctx context.Context, attempt entities.DispatchAttempt) error {
	logger := application.ResolveLogger(p.Logger)
	channel, err := p.Repository.GetChannel(ctx, attempt.Channel)
	if err != nil {
		if err == domainerrors.ErrChannelNotFound {
			return nil
		}
		return err
	}
	if attempt.Outcome == entities.AttemptOutcomeDelivered {
		channel.Reach++
	}
	channel.ResponseRate = responseRate(channel)
	channel.UpdatedAt = p.now()
	if err := p.Repository.UpsertChannel(ctx, channel); err != nil {
		logger.Error("progress channel stats update failed",
			"event", "progress_channel_stats_update_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"channel", string(channel.Kind),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (p Progress) updateChannelAfterResponse(ctx context.Context, payload events.ResponseScoredPayload) error {
	logger := application.ResolveLogger(p.Logger)
	kind := entities.ChannelKind(strings.TrimSpace(payload.Channel))
	if kind == "" {
		return nil
	}
	channel, err := p.Repository.GetChannel(ctx, kind)
	if err != nil {
		if err == domainerrors.ErrChannelNotFound {
			return nil
		}
		return err
	}

	channel.Responded++
	channel.ResponseRate = responseRate(channel)
	if payload.DurationSeconds > 0 {
		// Rolling mean over all responses seen on the channel.
		channel.AvgCompletionSeconds += (payload.DurationSeconds - channel.AvgCompletionSeconds) / float64(channel.Responded)
	}
	channel.UpdatedAt = p.now()
	if err := p.Repository.UpsertChannel(ctx, channel); err != nil {
		logger.Error("progress channel response stats update failed",
			"event", "progress_channel_response_stats_update_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"channel", string(channel.Kind),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func responseRate(channel entities.Channel) float64 {
	if channel.Reach <= 0 {
		return 0
	}
	return float64(channel.Responded) * 100 / float64(channel.Reach)
}

func (p Progress) now() time.Time {
	if p.Clock == nil {
		return time.Now().UTC()
	}
	return p.Clock.Now().UTC()
}

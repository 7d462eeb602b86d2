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
)

const (
	defaultMaxAttempts   = 3
	defaultRetryInterval = 24 * time.Hour
)

type CreateScheduleCommand struct {
	ScheduleID       string
	CampaignID       string
	SurveyName       string
	District         string
	PrimaryChannel   string
	FallbackChannels []string
	MaxAttempts      int
	RetryInterval    time.Duration
	ScheduledStart   time.Time
	ScheduledEnd     time.Time
	TargetCount      int
}

type EnrollRespondentsCommand struct {
	ScheduleID    string
	RespondentIDs []string
}

type CancelScheduleCommand struct {
	ScheduleID string
}

type UseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Dispatcher *Dispatcher
	Logger     *slog.Logger
}

func (uc UseCase) CreateSchedule(ctx context.Context, cmd CreateScheduleCommand) (entities.DeliverySchedule, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	scheduleID := strings.TrimSpace(cmd.ScheduleID)
	if scheduleID == "" {
		var err error
		scheduleID, err = uc.IDGen.NewID(ctx)
		if err != nil {
			logger.Error("delivery schedule id generation failed",
				"event", "delivery_schedule_id_generation_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "application",
				"error", err.Error(),
			)
			return entities.DeliverySchedule{}, err
		}
	}

	primary, err := normalizeChannel(cmd.PrimaryChannel)
	if err != nil {
		logger.Warn("delivery schedule invalid primary channel",
			"event", "delivery_schedule_invalid_primary_channel",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"channel", strings.TrimSpace(cmd.PrimaryChannel),
		)
		return entities.DeliverySchedule{}, err
	}
	fallbacks, err := normalizeFallbacks(cmd.FallbackChannels, primary)
	if err != nil {
		logger.Warn("delivery schedule invalid fallback chain",
			"event", "delivery_schedule_invalid_fallback_chain",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"error", err.Error(),
		)
		return entities.DeliverySchedule{}, err
	}

	schedule := entities.DeliverySchedule{
		ID:               scheduleID,
		CampaignID:       strings.TrimSpace(cmd.CampaignID),
		SurveyName:       strings.TrimSpace(cmd.SurveyName),
		District:         strings.TrimSpace(cmd.District),
		PrimaryChannel:   primary,
		FallbackChannels: fallbacks,
		Retry: entities.RetryPolicy{
			MaxAttempts: cmd.MaxAttempts,
			Interval:    cmd.RetryInterval,
		},
		ScheduledStart: cmd.ScheduledStart.UTC(),
		ScheduledEnd:   cmd.ScheduledEnd.UTC(),
		TargetCount:    cmd.TargetCount,
		Status:         entities.ScheduleStatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if schedule.Retry.MaxAttempts <= 0 {
		schedule.Retry.MaxAttempts = defaultMaxAttempts
	}
	if schedule.Retry.Interval <= 0 {
		schedule.Retry.Interval = defaultRetryInterval
	}
	if schedule.CampaignID == "" || schedule.SurveyName == "" || schedule.TargetCount <= 0 {
		logger.Warn("delivery schedule invalid input",
			"event", "delivery_schedule_invalid_input",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"campaign_id", schedule.CampaignID,
			"target_count", schedule.TargetCount,
		)
		return entities.DeliverySchedule{}, domainerrors.ErrInvalidScheduleInput
	}
	if !schedule.ScheduledEnd.After(schedule.ScheduledStart) {
		logger.Warn("delivery schedule invalid window",
			"event", "delivery_schedule_invalid_window",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"scheduled_start_utc", schedule.ScheduledStart.Format(time.RFC3339),
			"scheduled_end_utc", schedule.ScheduledEnd.Format(time.RFC3339),
		)
		return entities.DeliverySchedule{}, domainerrors.ErrInvalidScheduleWindow
	}

	if err := uc.Repository.CreateSchedule(ctx, schedule); err != nil {
		if err == domainerrors.ErrScheduleExists {
			logger.Warn("delivery schedule already exists",
				"event", "delivery_schedule_already_exists",
				"module", "survey-delivery/delivery-service",
				"layer", "application",
				"schedule_id", scheduleID,
			)
			return uc.Repository.GetSchedule(ctx, scheduleID)
		}
		logger.Error("delivery schedule create failed",
			"event", "delivery_schedule_create_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"error", err.Error(),
		)
		return entities.DeliverySchedule{}, err
	}

	logger.Info("delivery schedule created",
		"event", "delivery_schedule_created",
		"module", "survey-delivery/delivery-service",
		"layer", "application",
		"schedule_id", schedule.ID,
		"campaign_id", schedule.CampaignID,
		"district", schedule.District,
		"primary_channel", string(schedule.PrimaryChannel),
		"target_count", schedule.TargetCount,
	)
	return schedule, nil
}

// EnrollRespondents creates pending slots for the given respondents. Enrolling
// the same respondent twice is a no-op so webhook replays stay harmless.
func (uc UseCase) EnrollRespondents(ctx context.Context, cmd EnrollRespondentsCommand) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	schedule, err := uc.Repository.GetSchedule(ctx, strings.TrimSpace(cmd.ScheduleID))
	if err != nil {
		logger.Warn("delivery enroll schedule lookup failed",
			"event", "delivery_enroll_schedule_lookup_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", strings.TrimSpace(cmd.ScheduleID),
			"error", err.Error(),
		)
		return 0, err
	}
	if schedule.Status == entities.ScheduleStatusCompleted || schedule.Status == entities.ScheduleStatusCancelled {
		logger.Warn("delivery enroll invalid state",
			"event", "delivery_enroll_invalid_state",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", schedule.ID,
			"status", string(schedule.Status),
		)
		return 0, domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	enrolled := 0
	for _, raw := range cmd.RespondentIDs {
		respondentID := strings.TrimSpace(raw)
		if respondentID == "" {
			continue
		}
		slot := entities.RespondentSlot{
			ScheduleID:    schedule.ID,
			RespondentID:  respondentID,
			State:         entities.SlotStatePending,
			NextAttemptAt: schedule.ScheduledStart,
			UpdatedAt:     now,
		}
		if err := uc.Repository.CreateSlot(ctx, slot); err != nil {
			if err == domainerrors.ErrSlotExists {
				continue
			}
			logger.Error("delivery enroll slot create failed",
				"event", "delivery_enroll_slot_create_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "application",
				"schedule_id", schedule.ID,
				"respondent_id", respondentID,
				"error", err.Error(),
			)
			return enrolled, err
		}
		enrolled++
	}

	logger.Info("delivery respondents enrolled",
		"event", "delivery_respondents_enrolled",
		"module", "survey-delivery/delivery-service",
		"layer", "application",
		"schedule_id", schedule.ID,
		"enrolled_count", enrolled,
	)
	return enrolled, nil
}

// CancelSchedule is terminal. It aborts in-flight sends for the schedule and
// guarantees no further dispatch attempts are recorded for it.
func (uc UseCase) CancelSchedule(ctx context.Context, cmd CancelScheduleCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	schedule, err := uc.Repository.GetSchedule(ctx, strings.TrimSpace(cmd.ScheduleID))
	if err != nil {
		logger.Warn("delivery cancel schedule lookup failed",
			"event", "delivery_cancel_schedule_lookup_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", strings.TrimSpace(cmd.ScheduleID),
			"error", err.Error(),
		)
		return err
	}
	if schedule.Status != entities.ScheduleStatusScheduled && schedule.Status != entities.ScheduleStatusRunning {
		logger.Warn("delivery cancel invalid state",
			"event", "delivery_cancel_invalid_state",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", schedule.ID,
			"status", string(schedule.Status),
		)
		return domainerrors.ErrInvalidStateTransition
	}

	schedule.Status = entities.ScheduleStatusCancelled
	schedule.UpdatedAt = uc.now()
	if err := uc.Repository.UpdateSchedule(ctx, schedule); err != nil {
		logger.Error("delivery cancel state update failed",
			"event", "delivery_cancel_state_update_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", schedule.ID,
			"error", err.Error(),
		)
		return err
	}
	if uc.Dispatcher != nil {
		uc.Dispatcher.Abort(schedule.ID)
	}

	logger.Info("delivery schedule cancelled",
		"event", "delivery_schedule_cancelled",
		"module", "survey-delivery/delivery-service",
		"layer", "application",
		"schedule_id", schedule.ID,
	)
	return nil
}

func (uc UseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func normalizeChannel(value string) (entities.ChannelKind, error) {
	kind := entities.ChannelKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case entities.ChannelKindChat, entities.ChannelKindIVR, entities.ChannelKindWeb, entities.ChannelKindVoiceAvatar:
		return kind, nil
	default:
		return "", domainerrors.ErrUnsupportedChannel
	}
}

func normalizeFallbacks(values []string, primary entities.ChannelKind) ([]entities.ChannelKind, error) {
	fallbacks := make([]entities.ChannelKind, 0, len(values))
	seen := map[entities.ChannelKind]struct{}{primary: {}}
	for _, value := range values {
		kind, err := normalizeChannel(value)
		if err != nil {
			return nil, err
		}
		if _, exists := seen[kind]; exists {
			continue
		}
		seen[kind] = struct{}{}
		fallbacks = append(fallbacks, kind)
	}
	return fallbacks, nil
}

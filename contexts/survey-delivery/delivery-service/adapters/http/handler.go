package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "samiksha/contexts/survey-delivery/delivery-service/application"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
	"samiksha/contexts/survey-delivery/delivery-service/application/queries"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	httptransport "samiksha/contexts/survey-delivery/delivery-service/transport/http"
)

type Handler struct {
	Commands commands.UseCase
	Queries  queries.UseCase
	Logger   *slog.Logger
}

func (h Handler) CreateScheduleHandler(ctx context.Context, req httptransport.CreateScheduleRequest) (httptransport.ScheduleDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledStart))
	if err != nil {
		return httptransport.ScheduleDTO{}, domainerrors.ErrInvalidScheduleInput
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledEnd))
	if err != nil {
		return httptransport.ScheduleDTO{}, domainerrors.ErrInvalidScheduleInput
	}

	schedule, err := h.Commands.CreateSchedule(ctx, commands.CreateScheduleCommand{
		CampaignID:       req.CampaignID,
		SurveyName:       req.SurveyName,
		District:         req.District,
		PrimaryChannel:   req.PrimaryChannel,
		FallbackChannels: req.FallbackChannels,
		MaxAttempts:      req.MaxAttempts,
		RetryInterval:    time.Duration(req.RetryIntervalSec) * time.Second,
		ScheduledStart:   start,
		ScheduledEnd:     end,
		TargetCount:      req.TargetCount,
	})
	if err != nil {
		logger.Warn("delivery http create schedule failed",
			"event", "delivery_http_create_schedule_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "adapter",
			"campaign_id", strings.TrimSpace(req.CampaignID),
			"error", err.Error(),
		)
		return httptransport.ScheduleDTO{}, err
	}
	logger.Info("delivery http create schedule completed",
		"event", "delivery_http_create_schedule_completed",
		"module", "survey-delivery/delivery-service",
		"layer", "adapter",
		"schedule_id", schedule.ID,
	)
	return scheduleDTO(schedule), nil
}

func (h Handler) EnrollRespondentsHandler(ctx context.Context, scheduleID string, req httptransport.EnrollRespondentsRequest) (httptransport.EnrollRespondentsResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	enrolled, err := h.Commands.EnrollRespondents(ctx, commands.EnrollRespondentsCommand{
		ScheduleID:    scheduleID,
		RespondentIDs: req.RespondentIDs,
	})
	if err != nil {
		logger.Warn("delivery http enroll failed",
			"event", "delivery_http_enroll_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "adapter",
			"schedule_id", strings.TrimSpace(scheduleID),
			"error", err.Error(),
		)
		return httptransport.EnrollRespondentsResponse{}, err
	}
	return httptransport.EnrollRespondentsResponse{
		ScheduleID:    strings.TrimSpace(scheduleID),
		EnrolledCount: enrolled,
	}, nil
}

func (h Handler) CancelScheduleHandler(ctx context.Context, scheduleID string) error {
	logger := application.ResolveLogger(h.Logger)
	if err := h.Commands.CancelSchedule(ctx, commands.CancelScheduleCommand{ScheduleID: scheduleID}); err != nil {
		logger.Warn("delivery http cancel failed",
			"event", "delivery_http_cancel_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "adapter",
			"schedule_id", strings.TrimSpace(scheduleID),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("delivery http cancel completed",
		"event", "delivery_http_cancel_completed",
		"module", "survey-delivery/delivery-service",
		"layer", "adapter",
		"schedule_id", strings.TrimSpace(scheduleID),
	)
	return nil
}

func (h Handler) GetScheduleHandler(ctx context.Context, scheduleID string) (httptransport.ScheduleDTO, error) {
	schedule, err := h.Queries.GetSchedule(ctx, scheduleID)
	if err != nil {
		return httptransport.ScheduleDTO{}, err
	}
	return scheduleDTO(schedule), nil
}

func (h Handler) ListSchedulesHandler(ctx context.Context, district, status string) ([]httptransport.ScheduleDTO, error) {
	schedules, err := h.Queries.ListSchedules(ctx, district, status)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.ScheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		dtos = append(dtos, scheduleDTO(schedule))
	}
	return dtos, nil
}

func (h Handler) GetProgressHandler(ctx context.Context, scheduleID string) (httptransport.ProgressDTO, error) {
	progress, err := h.Queries.GetProgress(ctx, scheduleID)
	if err != nil {
		return httptransport.ProgressDTO{}, err
	}
	return httptransport.ProgressDTO{
		ScheduleID:     progress.ScheduleID,
		TargetCount:    progress.TargetCount,
		SentCount:      progress.SentCount,
		RespondedCount: progress.RespondedCount,
		Status:         string(progress.Status),
		Percent:        progress.Percent,
		OverDelivered:  progress.OverDelivered,
	}, nil
}

func (h Handler) ListChannelsHandler(ctx context.Context) ([]httptransport.ChannelDTO, error) {
	channels, err := h.Queries.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.ChannelDTO, 0, len(channels))
	for _, channel := range channels {
		dtos = append(dtos, httptransport.ChannelDTO{
			Name:                 channel.Name,
			Kind:                 string(channel.Kind),
			Status:               string(channel.Status),
			Reach:                channel.Reach,
			ResponseRate:         channel.ResponseRate,
			AvgCompletionSeconds: channel.AvgCompletionSeconds,
		})
	}
	return dtos, nil
}

func (h Handler) ChannelInsightsHandler(ctx context.Context) (httptransport.ChannelInsightDTO, error) {
	insight, err := h.Queries.ChannelInsights(ctx)
	if err != nil {
		return httptransport.ChannelInsightDTO{}, err
	}
	return httptransport.ChannelInsightDTO{
		BestResponseRateChannel:  string(insight.BestResponseRate.Kind),
		BestResponseRate:         insight.BestResponseRate.ResponseRate,
		FastestCompletionChannel: string(insight.FastestCompletion.Kind),
		FastestCompletionSeconds: insight.FastestCompletion.AvgCompletionSeconds,
		TotalReach:               insight.TotalReach,
	}, nil
}

func (h Handler) ListAttemptsHandler(ctx context.Context, scheduleID, respondentID string) ([]httptransport.AttemptDTO, error) {
	attempts, err := h.Queries.ListAttempts(ctx, scheduleID, respondentID)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.AttemptDTO, 0, len(attempts))
	for _, attempt := range attempts {
		dtos = append(dtos, httptransport.AttemptDTO{
			ID:            attempt.ID,
			ScheduleID:    attempt.ScheduleID,
			RespondentID:  attempt.RespondentID,
			AttemptNumber: attempt.AttemptNumber,
			Channel:       string(attempt.Channel),
			Outcome:       string(attempt.Outcome),
			Error:         attempt.Error,
			AttemptedAt:   attempt.AttemptedAt.UTC().Format(time.RFC3339),
		})
	}
	return dtos, nil
}

func scheduleDTO(schedule entities.DeliverySchedule) httptransport.ScheduleDTO {
	fallbacks := make([]string, 0, len(schedule.FallbackChannels))
	for _, kind := range schedule.FallbackChannels {
		fallbacks = append(fallbacks, string(kind))
	}
	return httptransport.ScheduleDTO{
		ID:               schedule.ID,
		CampaignID:       schedule.CampaignID,
		SurveyName:       schedule.SurveyName,
		District:         schedule.District,
		PrimaryChannel:   string(schedule.PrimaryChannel),
		FallbackChannels: fallbacks,
		MaxAttempts:      schedule.Retry.MaxAttempts,
		RetryIntervalSec: int(schedule.Retry.Interval.Seconds()),
		ScheduledStart:   schedule.ScheduledStart.UTC().Format(time.RFC3339),
		ScheduledEnd:     schedule.ScheduledEnd.UTC().Format(time.RFC3339),
		TargetCount:      schedule.TargetCount,
		SentCount:        schedule.SentCount,
		RespondedCount:   schedule.RespondedCount,
		Status:           string(schedule.Status),
	}
}

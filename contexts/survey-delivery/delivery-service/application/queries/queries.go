package queries

import (
	"context"
	"log/slog"
	"strings"

	application "samiksha/contexts/survey-delivery/delivery-service/application"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
)

type UseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc UseCase) GetSchedule(ctx context.Context, scheduleID string) (entities.DeliverySchedule, error) {
	return uc.Repository.GetSchedule(ctx, strings.TrimSpace(scheduleID))
}

func (uc UseCase) ListSchedules(ctx context.Context, district string, status string) ([]entities.DeliverySchedule, error) {
	return uc.Repository.ListSchedules(ctx, strings.TrimSpace(district), entities.ScheduleStatus(strings.TrimSpace(status)))
}

// GetProgress serves the outbound progress feed consumed by the dashboard.
func (uc UseCase) GetProgress(ctx context.Context, scheduleID string) (entities.Progress, error) {
	logger := application.ResolveLogger(uc.Logger)
	schedule, err := uc.Repository.GetSchedule(ctx, strings.TrimSpace(scheduleID))
	if err != nil {
		logger.Warn("delivery progress lookup failed",
			"event", "delivery_progress_lookup_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "application",
			"schedule_id", strings.TrimSpace(scheduleID),
			"error", err.Error(),
		)
		return entities.Progress{}, err
	}
	return commands.BuildProgress(schedule), nil
}

func (uc UseCase) ListChannels(ctx context.Context) ([]entities.Channel, error) {
	return uc.Repository.ListChannels(ctx)
}

// ChannelInsights backs the dashboard performance card: best response rate,
// fastest average completion and the aggregate reach across channels.
func (uc UseCase) ChannelInsights(ctx context.Context) (entities.ChannelInsight, error) {
	channels, err := uc.Repository.ListChannels(ctx)
	if err != nil {
		return entities.ChannelInsight{}, err
	}
	insight := entities.ChannelInsight{}
	for _, channel := range channels {
		insight.TotalReach += channel.Reach
		if channel.ResponseRate > insight.BestResponseRate.ResponseRate {
			insight.BestResponseRate = channel
		}
		if channel.AvgCompletionSeconds > 0 &&
			(insight.FastestCompletion.AvgCompletionSeconds == 0 ||
				channel.AvgCompletionSeconds < insight.FastestCompletion.AvgCompletionSeconds) {
			insight.FastestCompletion = channel
		}
	}
	return insight, nil
}

// ListAttempts exposes the append-only dispatch log for operator audit.
func (uc UseCase) ListAttempts(ctx context.Context, scheduleID, respondentID string) ([]entities.DispatchAttempt, error) {
	return uc.Repository.ListAttempts(ctx, strings.TrimSpace(scheduleID), strings.TrimSpace(respondentID))
}

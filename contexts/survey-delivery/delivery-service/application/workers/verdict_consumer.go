package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "samiksha/contexts/survey-delivery/delivery-service/application"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
	"samiksha/internal/shared/events"
)

// VerdictConsumer subscribes to scored-response events emitted by the
// paradata side and folds them into schedule/channel progress counters.
// Duplicate deliveries are absorbed by the responded-once dedup in Progress.
type VerdictConsumer struct {
	Subscriber    ports.EventSubscriber
	Progress      commands.Progress
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c VerdictConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := c.ConsumerGroup
	if group == "" {
		group = "delivery-progress-cg"
	}
	return c.Subscriber.Subscribe(ctx, events.TopicResponseScored, group, func(ctx context.Context, envelope events.Envelope) error {
		var payload events.ResponseScoredPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			logger.Error("verdict consumer payload decode failed",
				"event", "verdict_consumer_decode_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "worker",
				"event_id", envelope.EventID,
				"error", err.Error(),
			)
			return err
		}
		if err := c.Progress.RecordScoredResponse(ctx, payload); err != nil {
			logger.Error("verdict consumer progress update failed",
				"event", "verdict_consumer_progress_failed",
				"module", "survey-delivery/delivery-service",
				"layer", "worker",
				"event_id", envelope.EventID,
				"schedule_id", payload.ScheduleID,
				"response_id", payload.ResponseID,
				"error", err.Error(),
			)
			return err
		}
		return nil
	})
}

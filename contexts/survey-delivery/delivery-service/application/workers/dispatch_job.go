package workers

import (
	"context"
	"log/slog"

	application "samiksha/contexts/survey-delivery/delivery-service/application"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
)

// DispatchJob runs one dispatch pass over all running schedules.
type DispatchJob struct {
	Dispatcher *commands.Dispatcher
	Logger     *slog.Logger
}

func (j DispatchJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if err := j.Dispatcher.RunCycle(ctx); err != nil {
		logger.Error("dispatch cycle failed",
			"event", "dispatch_cycle_failed",
			"module", "survey-delivery/delivery-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	return nil
}

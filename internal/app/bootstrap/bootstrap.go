package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	deliveryservice "samiksha/contexts/survey-delivery/delivery-service"
	"samiksha/contexts/survey-delivery/delivery-service/adapters/channels"
	deliverypostgres "samiksha/contexts/survey-delivery/delivery-service/adapters/postgres"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
	deliveryworkers "samiksha/contexts/survey-delivery/delivery-service/application/workers"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	paradataservice "samiksha/contexts/survey-delivery/paradata-service"
	paradatapostgres "samiksha/contexts/survey-delivery/paradata-service/adapters/postgres"
	paradataworkers "samiksha/contexts/survey-delivery/paradata-service/application/workers"
	"samiksha/internal/platform/config"
	"samiksha/internal/platform/db"
	"samiksha/internal/platform/httpserver"
	"samiksha/internal/platform/messaging"
	"samiksha/internal/shared/events"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	lifecycle       deliveryworkers.LifecycleJob
	dispatch        deliveryworkers.DispatchJob
	verdictConsumer deliveryworkers.VerdictConsumer
	outboxRelay     paradataworkers.OutboxRelay
	pollInterval    time.Duration
	logger          *slog.Logger
}

// EventBus is the platform bus surface both processes wire into their modules.
// Satisfied by messaging.Bus (in-process) and messaging.KafkaBus.
type EventBus interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := buildBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	deliveryModule, paradataModule := buildModules(cfg, pg, bus, logger)
	server := httpserver.New(deliveryModule, paradataModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := buildBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	deliveryModule, paradataModule := buildModules(cfg, pg, bus, logger)
	return &WorkerApp{
		postgres:        pg,
		lifecycle:       deliveryModule.Lifecycle,
		dispatch:        deliveryModule.DispatchJob,
		verdictConsumer: deliveryModule.VerdictConsumer,
		outboxRelay:     paradataModule.OutboxRelay,
		pollInterval:    cfg.WorkerTickInterval,
		logger:          logger,
	}, nil
}

func buildBus(cfg config.Config, logger *slog.Logger) (EventBus, error) {
	if len(cfg.KafkaBrokers) > 0 {
		return messaging.NewKafkaBus(cfg.KafkaBrokers, logger)
	}
	return messaging.NewBus(logger), nil
}

func buildModules(
	cfg config.Config,
	pg *db.Postgres,
	bus EventBus,
	logger *slog.Logger,
) (deliveryservice.Module, paradataservice.Module) {
	deliveryRepo := deliverypostgres.NewRepository(pg.DB, logger)
	deliveryModule := deliveryservice.NewModule(deliveryservice.Dependencies{
		Repository: deliveryRepo,
		Adapters:   channels.NewDefaultRegistry(),
		Clock:      deliverypostgres.SystemClock{},
		IDGen:      deliverypostgres.UUIDGenerator{},
		Subscriber: bus,
		Dispatch:   dispatchConfig(cfg),
		Logger:     logger,
	})

	paradataRepo := paradatapostgres.NewRepository(pg.DB, logger)
	paradataModule := paradataservice.NewModule(paradataservice.Dependencies{
		Repository: paradataRepo,
		Outbox:     paradataRepo,
		OutboxRepo: paradataRepo,
		Publisher:  bus,
		Clock:      paradatapostgres.SystemClock{},
		IDGen:      paradatapostgres.UUIDGenerator{},
		Rules:      cfg.QualityRules,
		Logger:     logger,
	})
	return deliveryModule, paradataModule
}

func dispatchConfig(cfg config.Config) commands.DispatchConfig {
	timeouts := make(map[entities.ChannelKind]time.Duration, len(cfg.ChannelTimeouts))
	for kind, timeout := range cfg.ChannelTimeouts {
		timeouts[entities.ChannelKind(kind)] = timeout
	}
	concurrency := make(map[entities.ChannelKind]int64, len(cfg.ChannelConcurrency))
	for kind, limit := range cfg.ChannelConcurrency {
		concurrency[entities.ChannelKind(kind)] = limit
	}
	return commands.DispatchConfig{
		Timeouts:       timeouts,
		Concurrency:    concurrency,
		DefaultTimeout: cfg.DispatchDefaultTimeout,
		BatchSize:      cfg.DispatchBatchSize,
	}
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.verdictConsumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		// A failed cycle is logged and retried on the next tick, never fatal.
		if err := w.lifecycle.RunOnce(ctx); err != nil {
			w.logCycleError("lifecycle", err)
		}
		if err := w.dispatch.RunOnce(ctx); err != nil {
			w.logCycleError("dispatch", err)
		}
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			w.logCycleError("outbox_relay", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) logCycleError(job string, err error) {
	w.logger.Error("worker cycle failed",
		"event", "bootstrap_worker_cycle_failed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"job", job,
		"error", err.Error(),
	)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

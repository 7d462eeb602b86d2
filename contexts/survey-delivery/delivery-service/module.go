package deliveryservice

import (
	"log/slog"

	"samiksha/contexts/survey-delivery/delivery-service/adapters/channels"
	httpadapter "samiksha/contexts/survey-delivery/delivery-service/adapters/http"
	"samiksha/contexts/survey-delivery/delivery-service/adapters/memory"
	"samiksha/contexts/survey-delivery/delivery-service/application/commands"
	"samiksha/contexts/survey-delivery/delivery-service/application/queries"
	"samiksha/contexts/survey-delivery/delivery-service/application/workers"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
)

type Module struct {
	Handler         httpadapter.Handler
	Dispatcher      *commands.Dispatcher
	Lifecycle       workers.LifecycleJob
	DispatchJob     workers.DispatchJob
	VerdictConsumer workers.VerdictConsumer
	Store           *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Adapters   ports.AdapterRegistry
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Subscriber ports.EventSubscriber
	Dispatch   commands.DispatchConfig
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	progress := commands.Progress{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	dispatcher := &commands.Dispatcher{
		Repository: deps.Repository,
		Adapters:   deps.Adapters,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Progress:   progress,
		Config:     deps.Dispatch,
		Logger:     deps.Logger,
	}
	commandUseCase := commands.UseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Dispatcher: dispatcher,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
		Dispatcher: dispatcher,
		Lifecycle: workers.LifecycleJob{
			Repository: deps.Repository,
			Clock:      deps.Clock,
			Dispatcher: dispatcher,
			Logger:     deps.Logger,
		},
		DispatchJob: workers.DispatchJob{
			Dispatcher: dispatcher,
			Logger:     deps.Logger,
		},
		VerdictConsumer: workers.VerdictConsumer{
			Subscriber: deps.Subscriber,
			Progress:   progress,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store and the
// simulated channel registry; used by tests and local runs.
func NewInMemoryModule(
	seedSchedules []entities.DeliverySchedule,
	seedChannels []entities.Channel,
	registry *channels.Registry,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seedSchedules, seedChannels)
	if registry == nil {
		registry = channels.NewDefaultRegistry()
	}
	module := NewModule(Dependencies{
		Repository: store,
		Adapters:   registry,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

package paradataservice

import (
	"log/slog"

	httpadapter "samiksha/contexts/survey-delivery/paradata-service/adapters/http"
	"samiksha/contexts/survey-delivery/paradata-service/adapters/memory"
	"samiksha/contexts/survey-delivery/paradata-service/application/commands"
	"samiksha/contexts/survey-delivery/paradata-service/application/queries"
	"samiksha/contexts/survey-delivery/paradata-service/application/workers"
	"samiksha/contexts/survey-delivery/paradata-service/domain/scoring"
	"samiksha/contexts/survey-delivery/paradata-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Commands    *commands.UseCase
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Outbox     ports.OutboxWriter
	OutboxRepo ports.OutboxRepository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Rules      scoring.RuleConfig
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	rules := deps.Rules
	if rules.Revision == 0 {
		rules = scoring.DefaultRuleConfig()
	}
	commandUseCase := commands.NewUseCase(
		deps.Repository,
		deps.Outbox,
		deps.Clock,
		deps.IDGen,
		rules,
		deps.Logger,
	)
	queryUseCase := queries.NewQueries(deps.Repository, deps.Logger)
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
		Commands: commandUseCase,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store; used by
// tests and local runs.
func NewInMemoryModule(
	publisher ports.EventPublisher,
	rules scoring.RuleConfig,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Outbox:     store,
		OutboxRepo: store,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Rules:      rules,
		Logger:     logger,
	})
	module.Store = store
	return module
}

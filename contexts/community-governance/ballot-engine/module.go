package ballotengine

import (
	"log/slog"

	httpadapter "balloteer/contexts/community-governance/ballot-engine/adapters/http"
	"balloteer/contexts/community-governance/ballot-engine/adapters/memory"
	"balloteer/contexts/community-governance/ballot-engine/adapters/notify"
	"balloteer/contexts/community-governance/ballot-engine/application/commands"
	"balloteer/contexts/community-governance/ballot-engine/application/queries"
	"balloteer/contexts/community-governance/ballot-engine/application/workers"
	"balloteer/contexts/community-governance/ballot-engine/ports"
	"balloteer/internal/shared/locking"
)

type Module struct {
	Handler        httpadapter.Handler
	Commands       commands.ProposalUseCase
	Queries        queries.BallotQueries
	DeadlineCloser workers.DeadlineCloser
	ResultRelay    workers.ResultRelay
	Store          *memory.Store
}

type Dependencies struct {
	Proposals           ports.ProposalRepository
	Directory           ports.CommunityDirectory
	Gateway             ports.NotificationGateway
	Outbox              ports.OutboxWriter
	OutboxRepo          ports.OutboxRepository
	Publisher           ports.EventPublisher
	Clock               ports.Clock
	IDGen               ports.IDGenerator
	Locks               *locking.KeyedMutex
	DeliveryParallelism int
	WorkerBatchSize     int
	Logger              *slog.Logger
}

func NewModule(deps Dependencies) Module {
	locks := deps.Locks
	if locks == nil {
		locks = locking.NewKeyedMutex()
	}
	proposalCommands := commands.ProposalUseCase{
		Proposals:           deps.Proposals,
		Directory:           deps.Directory,
		Gateway:             deps.Gateway,
		Outbox:              deps.Outbox,
		Locks:               locks,
		Clock:               deps.Clock,
		IDGen:               deps.IDGen,
		DeliveryParallelism: deps.DeliveryParallelism,
		Logger:              deps.Logger,
	}
	ballotQueries := queries.BallotQueries{
		Proposals: deps.Proposals,
		Directory: deps.Directory,
		Sweeper:   proposalCommands,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: proposalCommands,
			Queries:  ballotQueries,
			Logger:   deps.Logger,
		},
		Commands: proposalCommands,
		Queries:  ballotQueries,
		DeadlineCloser: workers.DeadlineCloser{
			Proposals: deps.Proposals,
			Closer:    proposalCommands,
			Clock:     deps.Clock,
			BatchSize: deps.WorkerBatchSize,
			Logger:    deps.Logger,
		},
		ResultRelay: workers.ResultRelay{
			Outbox:    deps.OutboxRepo,
			Gateway:   deps.Gateway,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.WorkerBatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module onto the in-memory store, with the
// notification gateway publishing to the supplied bus.
func NewInMemoryModule(publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Proposals:  store,
		Directory:  store,
		Gateway:    notify.NewGateway(publisher, logger),
		Outbox:     store,
		OutboxRepo: store,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

package memberregistry

import (
	"log/slog"

	httpadapter "balloteer/contexts/community-governance/member-registry/adapters/http"
	"balloteer/contexts/community-governance/member-registry/adapters/memory"
	"balloteer/contexts/community-governance/member-registry/application"
	"balloteer/contexts/community-governance/member-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Communities ports.CommunityRepository
	Voters      ports.VoterRepository
	Notifier    ports.Notifier
	Clock       ports.Clock
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Communities: deps.Communities,
		Voters:      deps.Voters,
		Notifier:    deps.Notifier,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(notifier ports.Notifier, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Communities: store,
		Voters:      store,
		Notifier:    notifier,
		Clock:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

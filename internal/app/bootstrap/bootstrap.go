package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	ballotengine "balloteer/contexts/community-governance/ballot-engine"
	ballotmemory "balloteer/contexts/community-governance/ballot-engine/adapters/memory"
	ballotnotify "balloteer/contexts/community-governance/ballot-engine/adapters/notify"
	ballotpostgres "balloteer/contexts/community-governance/ballot-engine/adapters/postgres"
	ballotports "balloteer/contexts/community-governance/ballot-engine/ports"
	memberregistry "balloteer/contexts/community-governance/member-registry"
	registrynotify "balloteer/contexts/community-governance/member-registry/adapters/notify"
	registrypostgres "balloteer/contexts/community-governance/member-registry/adapters/postgres"
	registryentities "balloteer/contexts/community-governance/member-registry/domain/entities"
	registryports "balloteer/contexts/community-governance/member-registry/ports"
	"balloteer/internal/platform/config"
	"balloteer/internal/platform/db"
	"balloteer/internal/platform/httpserver"
	"balloteer/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres       *db.Postgres
	ballots        ballotengine.Module
	pollInterval   time.Duration
	deadlineCloser bool
	resultRelay    bool
	logger         *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	bus := messaging.NewBus(logger)

	var pg *db.Postgres
	var registry memberregistry.Module
	var ballots ballotengine.Module

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		// DSN-less wiring runs everything on in-memory adapters. Useful for
		// local demos and smoke tests, not for production.
		registry, ballots = buildInMemoryModules(bus, cfg, logger)
	} else {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		registry, ballots = buildPostgresModules(pg, bus, cfg, logger)
	}

	server := httpserver.New(registry, ballots, logger, normalizeAddr(cfg.HTTPPort))
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
	bus := messaging.NewBus(logger)

	var pg *db.Postgres
	var ballots ballotengine.Module
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		_, ballots = buildInMemoryModules(bus, cfg, logger)
	} else {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		_, ballots = buildPostgresModules(pg, bus, cfg, logger)
	}

	return &WorkerApp{
		postgres:       pg,
		ballots:        ballots,
		pollInterval:   cfg.WorkerPollInterval,
		deadlineCloser: cfg.EnableDeadlineCloser,
		resultRelay:    cfg.EnableResultRelay,
		logger:         logger,
	}, nil
}

func buildPostgresModules(
	pg *db.Postgres,
	bus *messaging.Bus,
	cfg config.Config,
	logger *slog.Logger,
) (memberregistry.Module, ballotengine.Module) {
	registryRepo := registrypostgres.NewRepository(pg.DB, logger)
	registry := memberregistry.NewModule(memberregistry.Dependencies{
		Communities: registryRepo,
		Voters:      registryRepo,
		Notifier:    registrynotify.NewNotifier(bus, logger),
		Clock:       registrypostgres.SystemClock{},
		Logger:      logger,
	})

	ballotRepo := ballotpostgres.NewRepository(pg.DB, logger)
	ballots := ballotengine.NewModule(ballotengine.Dependencies{
		Proposals:           ballotRepo,
		Directory:           ballotRepo,
		Gateway:             ballotnotify.NewGateway(bus, logger),
		Outbox:              ballotRepo,
		OutboxRepo:          ballotRepo,
		Publisher:           bus,
		Clock:               ballotpostgres.SystemClock{},
		IDGen:               ballotpostgres.UUIDGenerator{},
		DeliveryParallelism: cfg.DeliveryParallelism,
		WorkerBatchSize:     cfg.WorkerBatchSize,
		Logger:              logger,
	})
	return registry, ballots
}

func buildInMemoryModules(
	bus *messaging.Bus,
	cfg config.Config,
	logger *slog.Logger,
) (memberregistry.Module, ballotengine.Module) {
	registry := memberregistry.NewInMemoryModule(registrynotify.NewNotifier(bus, logger), logger)

	ballotStore := ballotmemory.NewStore()
	ballots := ballotengine.NewModule(ballotengine.Dependencies{
		Proposals: ballotStore,
		Directory: registryDirectory{
			communities: registry.Store,
			voters:      registry.Store,
		},
		Gateway:             ballotnotify.NewGateway(bus, logger),
		Outbox:              ballotStore,
		OutboxRepo:          ballotStore,
		Publisher:           bus,
		Clock:               ballotStore,
		IDGen:               ballotStore,
		DeliveryParallelism: cfg.DeliveryParallelism,
		WorkerBatchSize:     cfg.WorkerBatchSize,
		Logger:              logger,
	})
	ballots.Store = ballotStore
	return registry, ballots
}

// registryDirectory projects member-registry state into the ballot engine's
// directory port, so in-memory wiring shares one source of member truth.
type registryDirectory struct {
	communities registryports.CommunityRepository
	voters      registryports.VoterRepository
}

var _ ballotports.CommunityDirectory = registryDirectory{}

func (d registryDirectory) GetAdminID(ctx context.Context, communityID string) (string, error) {
	community, err := d.communities.GetCommunity(ctx, communityID)
	if err != nil {
		return "", err
	}
	return community.AdminID, nil
}

func (d registryDirectory) GetVoter(ctx context.Context, communityID string, voterID string) (ballotports.VoterProjection, bool, error) {
	voter, err := d.voters.GetVoter(ctx, communityID, voterID)
	if err != nil {
		return ballotports.VoterProjection{}, false, nil
	}
	return toProjection(voter), true, nil
}

func (d registryDirectory) ListEligibleVoters(ctx context.Context, communityID string) ([]ballotports.VoterProjection, error) {
	voters, err := d.voters.ListApprovedVoters(ctx, communityID)
	if err != nil {
		return nil, err
	}
	eligible := make([]ballotports.VoterProjection, 0, len(voters))
	for _, voter := range voters {
		projection := toProjection(voter)
		if projection.Eligible() {
			eligible = append(eligible, projection)
		}
	}
	return eligible, nil
}

func (d registryDirectory) ListCommunitiesForVoter(ctx context.Context, voterID string) ([]string, error) {
	return d.voters.ListCommunitiesForVoter(ctx, voterID)
}

func toProjection(voter registryentities.Voter) ballotports.VoterProjection {
	projection := ballotports.VoterProjection{
		VoterID:     voter.VoterID,
		DisplayName: voter.DisplayName,
		Approved:    voter.Approved,
	}
	if voter.Weight != nil {
		projection.Weight = *voter.Weight
	}
	return projection
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
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"deadline_closer", w.deadlineCloser,
		"result_relay", w.resultRelay,
	)

	for {
		if w.deadlineCloser {
			if err := w.ballots.DeadlineCloser.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.resultRelay {
			if err := w.ballots.ResultRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
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

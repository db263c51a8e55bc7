package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/categories"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draft"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/enrich"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/gateway"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/identity"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/invites"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/movies"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/realtime"
)

// Services holds the wired application graph.
type Services struct {
	Draft    *draft.Service
	Gateway  *gateway.Service
	Manager  *gateway.Manager
	Enricher *enrich.Worker
	Hub      *realtime.Hub

	jetstream *realtime.JetStreamPublisher
	consumer  *realtime.JetStreamConsumer
}

// setupServices wires repository, event stream, draft engine, gateway and
// enrichment together. Layering follows repository -> app -> service.
func setupServices(ctx context.Context, cfg Config) (*Services, func(), error) {
	var cleanup []func()
	runCleanup := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	// Storage
	var repo draft.Repository
	switch cfg.StorageBackend {
	case "memory":
		repo = draft.NewMemoryRepository()
		log.Warn().Msg("using in-memory storage, drafts do not survive restarts")
	case "postgres":
		pool, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		cleanup = append(cleanup, pool.Close)
		pg := draft.NewPostgresRepository(pool)
		if err := pg.Migrate(ctx); err != nil {
			runCleanup()
			return nil, nil, err
		}
		repo = pg
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	// Event stream: always the in-process hub; JetStream layered on when
	// enabled so multiple nodes see each other's drafts.
	hub := realtime.NewHub()
	var publisher realtime.Publisher = hub
	svcs := &Services{Hub: hub}

	if cfg.NATSEnabled {
		jsCfg := realtime.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		js, err := realtime.NewJetStreamPublisher(jsCfg)
		if err != nil {
			runCleanup()
			return nil, nil, fmt.Errorf("setup JetStream publisher: %w", err)
		}
		cleanup = append(cleanup, func() { js.Close() })
		svcs.jetstream = js
		publisher = realtime.Tee{hub, js}
	}

	// Invitations
	var sender draft.InviteSender = invites.LogSender{}
	if cfg.InviteEndpoint != "" {
		sender = invites.NewHTTPSender(cfg.InviteEndpoint, cfg.InviteAPIKey)
	}

	// Draft engine. The per-request identity is bound by the HTTP layer.
	app := draft.NewApp(repo, identity.None{}, publisher, sender)

	// Gateway: browsers connect here; presence flows back through the
	// same publisher the engine uses.
	manager := gateway.NewManager(gateway.DefaultConnectionConfig(), publisher)
	svcs.Manager = manager
	svcs.Gateway = gateway.NewService(manager)

	if cfg.NATSEnabled {
		jsCfg := realtime.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		consumer, err := realtime.NewJetStreamConsumer(jsCfg, manager.Broadcast)
		if err != nil {
			runCleanup()
			return nil, nil, fmt.Errorf("setup JetStream consumer: %w", err)
		}
		cleanup = append(cleanup, func() { consumer.Stop() })
		svcs.consumer = consumer
	}

	// Movie catalog: backs both pick enrichment and the suggestion endpoint.
	var serviceOpts []draft.ServiceOption
	if cfg.CatalogBaseURL != "" {
		rules, err := categories.LoadFile(cfg.CategoryRules)
		if err != nil {
			runCleanup()
			return nil, nil, fmt.Errorf("load category rules: %w", err)
		}

		catalog := movies.NewClient(cfg.CatalogBaseURL, cfg.CatalogAPIKey)
		serviceOpts = append(serviceOpts, draft.WithSuggester(movies.NewSelector(catalog, rules)))
		svcs.Enricher = enrich.NewWorker(repo, catalog, publisher, enrich.Config{
			Workers:       cfg.EnrichWorkers,
			SweepInterval: cfg.EnrichInterval,
		})
	} else {
		log.Warn().Msg("no movie catalog configured, pick enrichment and suggestions disabled")
	}
	svcs.Draft = draft.NewService(app, serviceOpts...)

	return svcs, runCleanup, nil
}

// Run starts the background loops owned by the service graph.
func (s *Services) Run(ctx context.Context) {
	go s.Manager.Run(ctx)
	if s.consumer != nil {
		go func() {
			if err := s.consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	} else {
		// Single-node: bridge the in-process hub straight to the gateway.
		s.Hub.SubscribeAll(s.Manager.Broadcast)
	}
	if s.Enricher != nil {
		go func() {
			if err := s.Enricher.Run(ctx); err != nil {
				log.Error().Err(err).Msg("enrichment worker stopped")
			}
		}()
	}
}

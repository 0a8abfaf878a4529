package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/HyperCogAI/alertkit/modules/alertapi"
	"github.com/HyperCogAI/alertkit/pkg/alerts"
	"github.com/HyperCogAI/alertkit/pkg/channels"
	"github.com/HyperCogAI/alertkit/pkg/config"
	"github.com/HyperCogAI/alertkit/pkg/engine"
	"github.com/HyperCogAI/alertkit/pkg/httpserver"
	"github.com/HyperCogAI/alertkit/pkg/logger"
	"github.com/HyperCogAI/alertkit/pkg/market"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/pg"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
	"github.com/HyperCogAI/alertkit/pkg/redis"
)

type appConfig struct {
	PG     pg.Config
	Redis  redis.Config
	Market market.Config
	Engine engine.Config
	HTTP   httpserver.Config
}

func main() {
	log := logger.New(logger.WithProduction("alertd"))
	logger.SetAsDefault(log)

	if err := run(context.Background(), log); err != nil {
		log.Error("alertd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	feed := market.NewRedisFeed(redisClient, cfg.Market, log)
	defer feed.Close()

	registry := channels.NewRegistry(channels.WithRegistryLogger(log))
	inApp := channels.NewInAppAdapter(64)
	defer inApp.Close()
	registry.Register(ctx, channels.Channel{
		ID:      "in_app",
		Kind:    channels.KindInApp,
		Enabled: true,
	}, inApp)

	eng := engine.New(engine.Deps{
		Feed:            feed,
		ChannelRegistry: registry,
		Logger:          log,
		Config:          cfg.Engine,
		Persistence: engine.Persistence{
			Alerts:        alerts.NewPostgresPersister(pool),
			Notifications: notifier.NewPostgresPersister(pool),
			Preferences:   prefs.NewPostgresPersister(pool),
			Channels:      channels.NewPostgresPersister(pool),
		},
	})
	if err := eng.Reconcile(ctx); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	r.Mount("/api/v1", alertapi.Router(eng))

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return eng.Run(gctx)
	})
	g.Go(func() error {
		// The server exits on its own SIGTERM handling; take the engine
		// down with it.
		defer cancel()
		return srv.Run(gctx, r)
	})
	return g.Wait()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voyagen/upnext/internal/cache"
	"github.com/voyagen/upnext/internal/config"
	"github.com/voyagen/upnext/internal/logging"
	"github.com/voyagen/upnext/internal/metadata"
	"github.com/voyagen/upnext/internal/server"
	"github.com/voyagen/upnext/internal/service"
	"github.com/voyagen/upnext/internal/store"
	"github.com/voyagen/upnext/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env DATABASE_URL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "config: JWT_SECRET is required")
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "fatal", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()

	resolver, err := newResolver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("resolver: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithResolverTimeout(cfg.ResolverTimeout),
	}
	health := []server.Pinger{db}

	// Redis is optional: it adds cross-instance locks, the metadata cache and the
	// backfill queue.
	var jobs *cache.JobQueue
	if cfg.RedisURL != "" {
		rds, err := cache.New(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}

		resolver = metadata.NewCached(resolver, rds, log)
		jobs = cache.NewJobQueue(rds)
		opts = append(opts,
			service.WithLocker(cache.NewRoomLocker(rds, cfg.AdvanceLockTTL)),
			service.WithBackfill(jobs),
		)
		health = append(health, rds)
		log.Info(ctx, "redis connected (locks, metadata cache and backfill enabled)")
	} else {
		log.Info(ctx, "redis disabled (REDIS_URL not set)")
	}

	q := service.New(db, resolver, cfg.Limits(), opts...)

	if jobs != nil {
		go worker.NewMetadata(jobs, q, log).Run(ctx)
	}

	return server.New(q, cfg, log, health...).ListenAndServe(ctx)
}

// newResolver prefers the YouTube Data API and falls back to the keyless oEmbed endpoint.
func newResolver(ctx context.Context, cfg *config.Config) (metadata.Resolver, error) {
	if cfg.YouTubeAPIKey != "" {
		return metadata.NewYouTube(ctx, cfg.YouTubeAPIKey, cfg.UserAgent)
	}
	return metadata.NewOEmbed("", cfg.UserAgent, cfg.ResolverTimeout), nil
}

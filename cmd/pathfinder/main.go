package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rangulvers/wikigraph/internal/config"
	"github.com/rangulvers/wikigraph/internal/diversity"
	"github.com/rangulvers/wikigraph/internal/pgadapter"
	"github.com/rangulvers/wikigraph/internal/search"
	"github.com/rangulvers/wikigraph/internal/segcache"
	"github.com/rangulvers/wikigraph/internal/server"
	"github.com/rangulvers/wikigraph/internal/upstream"
	"github.com/rangulvers/wikigraph/pkg/leaselock"
	"github.com/rangulvers/wikigraph/pkg/logger"
	"github.com/rangulvers/wikigraph/pkg/logger/console"
)

func main() {
	cfg := config.Load()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.LogLevel == "debug",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("unable to connect to database", "err", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := pgadapter.Migrate(cfg.MigrationsDir, cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", "err", err)
		}
	}

	persist := pgadapter.New(pool)

	cache := segcache.NewFacade(cfg.MemCacheCapacity, persist)
	if err := cache.Warm(ctx, cfg.CacheWarmLimit); err != nil {
		logger.Error("failed to warm segment cache", "err", err)
	}
	go cache.RunFlusher(ctx)

	lock := leaselock.New(pool)
	go persist.RunCompaction(ctx, lock, pgadapter.CompactionOptions{
		MaxAge:   time.Duration(cfg.CompactionMaxAgeDays) * 24 * time.Hour,
		MaxRows:  int64(cfg.CompactionMaxRows),
		Interval: time.Duration(cfg.CompactionInterval) * time.Minute,
	})

	client := upstream.NewHTTPClient(cfg.UpstreamBaseURL, &http.Client{Timeout: 15 * time.Second}, cfg.UpstreamConcurrency)

	engine := &search.Engine{
		Upstream:          client,
		Cache:             cache,
		Persist:           persist,
		ExpandConcurrency: 8,
		DiversityOptions: diversity.Options{
			K:           cfg.DefaultK,
			MinDistance: cfg.DiversityMinDistance,
		},
	}

	deps := server.Dependencies{Engine: engine, Persist: persist}
	e := server.New(deps)

	if err := server.Serve(ctx, e, cfg.ListenAddr); err != nil {
		logger.Fatal("server exited with error", "err", err)
	}
}

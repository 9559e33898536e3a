package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/collector"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/config"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/ipto"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/openmeteo"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/store"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Database credentials commonly live in a local .env during development.
	_ = godotenv.Load()

	logger.Info("starting collector",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"locations", len(cfg.Weather.Locations),
		"schedule", cfg.Collector.Schedule,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var st *store.Store
	var runStore collector.RunStore
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		st, err = store.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer st.Close()
		if err := st.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		runStore = st
		logger.Info("database connected")
	}

	weatherClient := openmeteo.NewClient(cfg.Weather.BaseURL,
		openmeteo.WithLogger(logger),
		openmeteo.WithTimeout(cfg.HTTP.Timeout),
		openmeteo.WithRetries(cfg.HTTP.MaxRetries, cfg.HTTP.RetryBackoff),
		openmeteo.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst),
	)
	iptoClient := ipto.NewClient(cfg.IPTO.BaseURL,
		ipto.WithLogger(logger),
		ipto.WithChunkDays(cfg.IPTO.ChunkDays),
		ipto.WithRangeEndpoint(cfg.IPTO.UseRange),
	)

	health := collector.NewHealth(cfg.Instance.ID, logger)
	if st != nil {
		// Carry the last persisted run across restarts so /healthz is not
		// empty until the first cycle completes.
		last, err := st.LatestRun(ctx, collector.RunSource)
		if err != nil {
			logger.Warn("could not load last run", "error", err)
		} else if last != nil {
			health.Record(*last)
		}
	}
	c := collector.New(cfg, weatherClient, iptoClient, runStore,
		collector.WithLogger(logger),
		collector.WithRunCallback(health.Record),
	)

	if *once {
		to := time.Now().UTC().Truncate(24 * time.Hour)
		from := to.AddDate(0, 0, -(cfg.Collector.LookbackDays - 1))
		if _, err := c.Run(ctx, from, to); err != nil {
			os.Exit(1)
		}
		return
	}

	scheduler := collector.NewScheduler(c, cfg.Collector.Schedule, cfg.Collector.LookbackDays, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return health.Serve(gctx, cfg.Collector.HealthPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("collector exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("collector stopped")
}

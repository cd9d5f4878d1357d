package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/internal/maintenance"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/db"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
	"github.com/angelmondragon/ordering-backend/pkg/migrate"
	"github.com/angelmondragon/ordering-backend/pkg/outbox"
	"github.com/angelmondragon/ordering-backend/pkg/redis"
)

const lockName = "maintenance"

func main() {
	logg := logger.New(logger.Options{ServiceName: "maintenance"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	seedFile := flag.String("seed", "", "menu YAML file to upsert before running repairs")
	noLock := flag.Bool("no-lock", false, "skip the redis run lock (single-instance local runs)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "maintenance"

	logg = logger.New(logger.Options{
		ServiceName: "maintenance",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock maintenance.Lock = maintenance.NoopLock{}
	if !*noLock {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := maintenance.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Maintenance.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create maintenance lock", err)
			os.Exit(1)
		}
		lock = redisLock
	}

	writer := catalog.NewWriter(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	tasks := []maintenance.Task{}

	path := *seedFile
	if path == "" {
		path = cfg.Maintenance.SeedFile
	}
	if path != "" {
		seed, err := maintenance.NewSeedTaskFromFile(path, writer, outbox.NewService(outboxRepo, logg))
		if err != nil {
			logg.Error(context.Background(), "failed to load seed file", err)
			os.Exit(1)
		}
		tasks = append(tasks, seed)
	}
	tasks = append(tasks, maintenance.DefaultTasks(writer)...)
	retention, err := maintenance.NewOutboxRetentionTask(outboxRepo, 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention task", err)
		os.Exit(1)
	}
	tasks = append(tasks, retention)

	registry, err := maintenance.NewRegistry(tasks...)
	if err != nil {
		logg.Error(context.Background(), "failed to register maintenance tasks", err)
		os.Exit(1)
	}
	runner, err := maintenance.NewRunner(maintenance.RunnerParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Ledger:   maintenance.NewLedger(dbClient.DB()),
		DB:       dbClient,
		Metrics:  metrics.NewMaintenanceTaskMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance runner", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	report, err := runner.Run(ctx)
	if report != nil {
		fmt.Printf("applied=%d skipped=%d failed=%d locked=%t\n", len(report.Applied), len(report.Skipped), len(report.Failed), report.Locked)
	}
	if err != nil {
		logg.Error(ctx, "maintenance run finished with failures", err)
		os.Exit(1)
	}
}

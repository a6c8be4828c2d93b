package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brewbar/bubbletea-backend/internal/cron"
	"github.com/brewbar/bubbletea-backend/internal/media"
	"github.com/brewbar/bubbletea-backend/internal/users"
	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/instance"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/metrics"
	"github.com/brewbar/bubbletea-backend/pkg/migrate"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
	"github.com/brewbar/bubbletea-backend/pkg/redis"
	"github.com/brewbar/bubbletea-backend/pkg/storage/gcs"
)

func main() {
	once := flag.Bool("once", false, "run a single maintenance cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.CronLockKey(cfg.App.Env), cfg.Maintenance.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	registry, err := buildRegistry(cfg, logg, dbClient, gcsClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(cfg.Service.Kind),
	})
	if *once {
		logg.Info(ctx, "running single maintenance cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "maintenance cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, gcsClient *gcs.Client) (*cron.Registry, error) {
	orderEventJob, err := cron.NewOrderEventRetentionJob(cron.OrderEventRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Events:      outbox.NewRepository(dbClient.DB()),
		Retention:   cfg.Maintenance.OutboxRetentionDays,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	mediaJob, err := cron.NewPendingMediaCleanupJob(cron.PendingMediaCleanupJobParams{
		Logger:     logg,
		MediaRepo:  media.NewRepository(dbClient.DB()),
		Store:      gcsClient,
		Bucket:     gcsClient.DefaultBucket(),
		GraceHours: cfg.Maintenance.PendingMediaHours,
	})
	if err != nil {
		return nil, err
	}
	anonymousJob, err := cron.NewAnonymousUserCleanupJob(cron.AnonymousUserCleanupJobParams{
		Logger:        logg,
		DB:            dbClient,
		Users:         users.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Maintenance.AnonymousRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(orderEventJob, mediaJob, anonymousJob)
}

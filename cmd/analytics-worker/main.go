package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/brewbar/bubbletea-backend/internal/analytics/router"
	"github.com/brewbar/bubbletea-backend/internal/analytics/worker"
	"github.com/brewbar/bubbletea-backend/internal/analytics/writer"
	"github.com/brewbar/bubbletea-backend/pkg/bigquery"
	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/instance"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/outbox/idempotency"
	"github.com/brewbar/bubbletea-backend/pkg/pubsub"
	"github.com/brewbar/bubbletea-backend/pkg/redis"
)

const serviceKind = "analytics-worker"

func main() {
	bootLogger := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		bootLogger.Warn(context.Background(), ".env file not found, relying on environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		bootLogger.Error(context.Background(), "analytics worker stopped", err)
		os.Exit(1)
	}
}

// run wires Redis dedupe, the orders subscription and the BigQuery fact
// tables, then consumes until ctx ends. Clients close in reverse order.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
		"instance":    instance.ID(serviceKind),
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeLogged(ctx, logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	defer closeLogged(ctx, logg, "pubsub", pubsubClient.Close)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return fmt.Errorf("bigquery: %w", err)
	}
	defer closeLogged(ctx, logg, "bigquery", bqClient.Close)

	orders := pubsubClient.OrdersSubscription()
	if orders == nil {
		return errors.New("orders subscription not configured")
	}

	seen, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency manager: %w", err)
	}
	facts, err := writer.New(bqClient, writer.Config{
		OrderFactsTable:  bqClient.OrderFactsTable(),
		StatusFactsTable: bqClient.StatusFactsTable(),
	})
	if err != nil {
		return fmt.Errorf("order facts writer: %w", err)
	}
	routes, err := router.NewRouter(facts, logg, nil)
	if err != nil {
		return fmt.Errorf("analytics router: %w", err)
	}
	consumer, err := worker.NewConsumer(orders, routes, seen, logg)
	if err != nil {
		return fmt.Errorf("analytics consumer: %w", err)
	}

	logg.Info(ctx, "analytics worker consuming order events")
	return consumer.Run(ctx)
}

func closeLogged(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "closing "+name, err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/brewbar/bubbletea-backend/api/controllers"
	"github.com/brewbar/bubbletea-backend/api/routes"
	"github.com/brewbar/bubbletea-backend/internal/address"
	"github.com/brewbar/bubbletea-backend/internal/analytics/report"
	"github.com/brewbar/bubbletea-backend/internal/auth"
	"github.com/brewbar/bubbletea-backend/internal/cart"
	"github.com/brewbar/bubbletea-backend/internal/categories"
	"github.com/brewbar/bubbletea-backend/internal/checkout"
	"github.com/brewbar/bubbletea-backend/internal/dashboard"
	"github.com/brewbar/bubbletea-backend/internal/media"
	"github.com/brewbar/bubbletea-backend/internal/orders"
	"github.com/brewbar/bubbletea-backend/internal/pricing"
	"github.com/brewbar/bubbletea-backend/internal/products"
	"github.com/brewbar/bubbletea-backend/internal/promotions"
	"github.com/brewbar/bubbletea-backend/internal/reviews"
	"github.com/brewbar/bubbletea-backend/internal/settings"
	"github.com/brewbar/bubbletea-backend/internal/toppings"
	"github.com/brewbar/bubbletea-backend/internal/users"
	"github.com/brewbar/bubbletea-backend/internal/wishlist"
	"github.com/brewbar/bubbletea-backend/pkg/auth/session"
	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/instance"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/metrics"
	"github.com/brewbar/bubbletea-backend/pkg/migrate"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
	"github.com/brewbar/bubbletea-backend/pkg/redis"
	"github.com/brewbar/bubbletea-backend/pkg/security"
	"github.com/brewbar/bubbletea-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := routes.Dependencies{
		Config:   cfg,
		Logger:   logg,
		Sessions: sessionManager,
		Redis:    redisClient,
		Readiness: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
			"gcs":   gcsClient,
		},
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Gatherer:    registry,
	}
	if err := buildServices(&deps, cfg, logg, dbClient, gcsClient, sessionManager, metrics.NewCheckoutMetrics(registry)); err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(cfg.Service.Kind),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

func buildServices(
	deps *routes.Dependencies,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	gcsClient *gcs.Client,
	sessionManager *session.Manager,
	checkoutMetrics *metrics.CheckoutMetrics,
) error {
	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	toppingRepo := toppings.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)

	var err error
	if deps.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Hasher:         security.NewHasher(cfg.Password),
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	}); err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	if deps.Categories, err = categories.NewService(categories.NewRepository(gdb), dbClient); err != nil {
		return fmt.Errorf("categories service: %w", err)
	}
	if deps.Products, err = products.NewService(productRepo, dbClient, deps.Categories, toppingRepo); err != nil {
		return fmt.Errorf("products service: %w", err)
	}
	if deps.Toppings, err = toppings.NewService(toppingRepo, dbClient); err != nil {
		return fmt.Errorf("toppings service: %w", err)
	}
	if deps.Reviews, err = reviews.NewService(gdb); err != nil {
		return fmt.Errorf("reviews service: %w", err)
	}
	if deps.Cart, err = cart.NewService(cartRepo, dbClient, productRepo, toppingRepo); err != nil {
		return fmt.Errorf("cart service: %w", err)
	}
	if deps.Wishlist, err = wishlist.NewService(wishlist.NewRepository(gdb)); err != nil {
		return fmt.Errorf("wishlist service: %w", err)
	}
	if deps.Addresses, err = address.NewService(dbClient); err != nil {
		return fmt.Errorf("address service: %w", err)
	}
	if deps.Promotions, err = promotions.NewService(promotions.NewRepository(gdb)); err != nil {
		return fmt.Errorf("promotions service: %w", err)
	}
	if deps.Checkout, err = checkout.NewService(checkout.Deps{
		Tx:         dbClient,
		Cart:       cartRepo,
		Orders:     orderRepo,
		Catalog:    checkout.RepositoryCatalog{ProductRepo: productRepo, ToppingRepo: toppingRepo},
		Promotions: deps.Promotions,
		Addresses:  deps.Addresses,
		Outbox:     emitter,
		Shipping: pricing.ShippingRule{
			Fee:           cfg.Checkout.ShippingFee,
			FreeThreshold: cfg.Checkout.FreeShippingThreshold,
		},
		Metrics: checkoutMetrics,
		Logger:  logg,
	}); err != nil {
		return fmt.Errorf("checkout service: %w", err)
	}
	if deps.Orders, err = orders.NewService(orderRepo, dbClient, emitter, orders.StatusPolicy{Strict: cfg.Orders.StrictTransitions}, logg); err != nil {
		return fmt.Errorf("orders service: %w", err)
	}
	if deps.Users, err = users.NewService(userRepo, dbClient); err != nil {
		return fmt.Errorf("users service: %w", err)
	}
	if deps.Settings, err = settings.NewService(gdb); err != nil {
		return fmt.Errorf("settings service: %w", err)
	}
	if deps.Dashboard, err = dashboard.NewService(gdb); err != nil {
		return fmt.Errorf("dashboard service: %w", err)
	}

	sqlxDB, err := dbClient.SQLX()
	if err != nil {
		return fmt.Errorf("sqlx handle: %w", err)
	}
	reports, err := report.NewService(report.NewSQLLoader(sqlxDB), cfg.App.Location())
	if err != nil {
		return fmt.Errorf("report service: %w", err)
	}
	deps.Reports = reports

	if deps.Media, err = media.NewService(media.Params{
		Repo:        media.NewRepository(gdb),
		Store:       gcsClient,
		Bucket:      gcsClient.DefaultBucket(),
		UploadTTL:   cfg.GCS.UploadURLExpiry,
		DownloadTTL: cfg.GCS.DownloadURLExpiry,
		MaxUploadMB: cfg.GCS.MaxUploadMB,
		Logger:      logg,
	}); err != nil {
		return fmt.Errorf("media service: %w", err)
	}
	return nil
}

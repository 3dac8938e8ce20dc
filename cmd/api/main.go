package main

import (
	"context"
	"net/http"
	"os"

	"github.com/angelmondragon/entitle-backend/api/routes"
	"github.com/angelmondragon/entitle-backend/internal/accounts"
	"github.com/angelmondragon/entitle-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/entitle-backend/internal/checkout"
	"github.com/angelmondragon/entitle-backend/internal/entitlements"
	"github.com/angelmondragon/entitle-backend/pkg/cache"
	"github.com/angelmondragon/entitle-backend/pkg/config"
	"github.com/angelmondragon/entitle-backend/pkg/db"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/angelmondragon/entitle-backend/pkg/metrics"
	"github.com/angelmondragon/entitle-backend/pkg/migrate"
	"github.com/angelmondragon/entitle-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/entitle-backend/pkg/stripe"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

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

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry)

	billingCache := cache.New(cache.NewRedisStore(redisClient))
	accountsRepo := accounts.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Stripe:   catalog.NewStripeClient(),
		Cache:    billingCache,
		Logger:   logg,
		Metrics:  billingMetrics,
		PriceIDs: cfg.Stripe.RecognizedPriceIDs(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	billingClient := entitlements.NewStripeClient()
	fetcher, err := entitlements.NewFetcher(entitlements.FetcherParams{
		Stripe:  billingClient,
		Logger:  logg,
		Metrics: billingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create record fetcher", err)
		os.Exit(1)
	}

	resolver, err := entitlements.NewResolver(entitlements.ResolverParams{
		Stripe:   billingClient,
		Accounts: accountsRepo,
		Logger:   logg,
		Metrics:  billingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customer resolver", err)
		os.Exit(1)
	}

	entitlementService, err := entitlements.NewService(entitlements.ServiceParams{
		Fetcher:  fetcher,
		Resolver: resolver,
		Catalog:  catalogService,
		Cache:    billingCache,
		CacheTTL: cfg.Billing.CacheTTL,
		Logger:   logg,
		Metrics:  billingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Stripe:              checkoutsvc.NewStripeClient(),
		Catalog:             catalogService,
		Resolver:            resolver,
		Logger:              logg,
		Metrics:             billingMetrics,
		SuccessURL:          cfg.Billing.SuccessURL,
		CancelURL:           cfg.Billing.CancelURL,
		PortalConfiguration: stripeClient.PortalConfiguration(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			accountsRepo,
			entitlementService,
			checkoutService,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

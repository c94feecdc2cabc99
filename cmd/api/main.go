package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scentlane/storefront-backend/api/routes"
	"github.com/scentlane/storefront-backend/internal/cart"
	"github.com/scentlane/storefront-backend/internal/catalog"
	"github.com/scentlane/storefront-backend/internal/checkout"
	"github.com/scentlane/storefront-backend/internal/customers"
	"github.com/scentlane/storefront-backend/internal/notifications"
	"github.com/scentlane/storefront-backend/internal/orders"
	"github.com/scentlane/storefront-backend/internal/pricing"
	"github.com/scentlane/storefront-backend/pkg/config"
	"github.com/scentlane/storefront-backend/pkg/db"
	"github.com/scentlane/storefront-backend/pkg/logger"
	"github.com/scentlane/storefront-backend/pkg/metrics"
	"github.com/scentlane/storefront-backend/pkg/migrate"
	"github.com/scentlane/storefront-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	catalogClient, err := catalog.NewClient(cfg.Catalog)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog client", err)
		os.Exit(1)
	}
	gateway, err := catalog.NewGateway(catalogClient, cfg.Catalog.CacheTTL, storefrontMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog gateway", err)
		os.Exit(1)
	}

	policy, err := pricing.PolicyFromConfig(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to parse pricing policy", err)
		os.Exit(1)
	}
	engine, err := pricing.NewEngine(policy)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing engine", err)
		os.Exit(1)
	}
	builder, err := checkout.NewBuilder(engine)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout builder", err)
		os.Exit(1)
	}

	persistence, err := cart.NewRedisPersistence(redisClient, cfg.Cart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart persistence", err)
		os.Exit(1)
	}
	cartManager, err := cart.NewManager(persistence, cfg.Cart.SignalDecay)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart manager", err)
		os.Exit(1)
	}
	buyNowStore, err := checkout.NewBuyNowStore(redisClient, cfg.Checkout.BuyNowTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create buy-now store", err)
		os.Exit(1)
	}

	customersRepo := customers.NewRepository(dbClient.DB())
	mailer := notifications.NewSMTPMailer(cfg.SMTP)

	orderService, err := orders.NewService(orders.ServiceDeps{
		Repo:      orders.NewRepository(dbClient.DB()),
		Customers: customersRepo,
		Tx:        dbClient,
		Locker:    redisClient,
		LockTTL:   cfg.Checkout.SubmissionLockTTL,
		Cart:      persistence,
		BuyNow:    buyNowStore,
		Mailer:    mailer,
		Metrics:   storefrontMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Registry:  registry,
			Catalog:   gateway,
			Buster:    gateway,
			CartMgr:   cartManager,
			Engine:    engine,
			Builder:   builder,
			BuyNow:    buyNowStore,
			Orders:    orderService,
			Customers: customersRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/campusfreestore/freestore-backend/api/routes"
	"github.com/campusfreestore/freestore-backend/internal/auth"
	"github.com/campusfreestore/freestore-backend/internal/checkout"
	"github.com/campusfreestore/freestore-backend/internal/enroll"
	"github.com/campusfreestore/freestore-backend/internal/inventory"
	"github.com/campusfreestore/freestore-backend/internal/orders"
	"github.com/campusfreestore/freestore-backend/internal/seed"
	"github.com/campusfreestore/freestore-backend/internal/users"
	"github.com/campusfreestore/freestore-backend/pkg/auth/session"
	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db"
	"github.com/campusfreestore/freestore-backend/pkg/logger"
	"github.com/campusfreestore/freestore-backend/pkg/metrics"
	"github.com/campusfreestore/freestore-backend/pkg/migrate"
	"github.com/campusfreestore/freestore-backend/pkg/redis"
	pkgsession "github.com/campusfreestore/freestore-backend/pkg/session"
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

	if err := seed.Run(context.Background(), cfg.Seed, cfg.Password, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to seed baseline records", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stateStore, err := pkgsession.NewStore(redisClient, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session state store", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(users.NewRepository(dbClient.DB()), sessionManager, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	inventoryService, err := inventory.NewService(inventoryRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	enrollService, err := enroll.NewService(inventoryService, stateStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create enroll service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(inventoryRepo, ordersRepo, dbClient, stateStore, cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessionManager,
			Registry:    registry,
			HTTPMetrics: httpMetrics,
			Auth:        authService,
			Inventory:   inventoryService,
			Orders:      ordersService,
			Enroll:      enrollService,
			Checkout:    checkoutService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

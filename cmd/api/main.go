package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/navnoorsingh0309/inventory-management/api/routes"
	"github.com/navnoorsingh0309/inventory-management/internal/components"
	"github.com/navnoorsingh0309/inventory-management/internal/projects"
	"github.com/navnoorsingh0309/inventory-management/internal/requests"
	"github.com/navnoorsingh0309/inventory-management/internal/userinventory"
	"github.com/navnoorsingh0309/inventory-management/pkg/config"
	"github.com/navnoorsingh0309/inventory-management/pkg/db"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
	"github.com/navnoorsingh0309/inventory-management/pkg/metrics"
	"github.com/navnoorsingh0309/inventory-management/pkg/migrate"
	"github.com/navnoorsingh0309/inventory-management/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	transitionMetrics := metrics.NewTransitionMetrics(registry)

	componentsRepo := components.NewRepository(dbClient.DB())
	componentsService, err := components.NewService(componentsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create components service", err)
		os.Exit(1)
	}

	userInventoryRepo := userinventory.NewRepository(dbClient.DB())
	userInventoryService, err := userinventory.NewService(userInventoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user inventory service", err)
		os.Exit(1)
	}

	requestsRepo := requests.NewRepository(dbClient.DB())
	requestsService, err := requests.NewService(
		requestsRepo,
		componentsRepo,
		dbClient,
		requests.NewLedger(),
		userinventory.NewWriter(),
		logg,
		transitionMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}

	projectsService, err := projects.NewService(projects.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create projects service", err)
		os.Exit(1)
	}

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
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			Requests:      requestsService,
			Components:    componentsService,
			UserInventory: userInventoryService,
			Projects:      projectsService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			_ = server.Close()
		}
	}
}

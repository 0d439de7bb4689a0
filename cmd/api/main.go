package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/retaildesk/retaildesk-backend/api/routes"
	"github.com/retaildesk/retaildesk-backend/internal/analytics"
	"github.com/retaildesk/retaildesk-backend/internal/auth"
	"github.com/retaildesk/retaildesk-backend/internal/catalog"
	"github.com/retaildesk/retaildesk-backend/internal/checkout"
	"github.com/retaildesk/retaildesk-backend/internal/customers"
	"github.com/retaildesk/retaildesk-backend/internal/ingestion"
	"github.com/retaildesk/retaildesk-backend/internal/users"
	"github.com/retaildesk/retaildesk-backend/pkg/config"
	"github.com/retaildesk/retaildesk-backend/pkg/db"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
	"github.com/retaildesk/retaildesk-backend/pkg/metrics"
	"github.com/retaildesk/retaildesk-backend/pkg/migrate"
	"github.com/retaildesk/retaildesk-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)
	ingestionMetrics := metrics.NewIngestionMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	customersRepo := customers.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)

	authService, err := auth.NewService(
		dbClient,
		usersRepo,
		auth.NewResetTokenRepository(gormDB),
		cfg.JWT,
		cfg.Password,
		cfg.Frontend.URL,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	orderService, err := checkout.NewService(dbClient, nil, orderMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ingestionService, err := ingestion.NewService(dbClient, catalogRepo, ingestionMetrics, logg, cfg.Ingestion.PreviewRows)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingestion service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(gormDB, cfg.Analytics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
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
		Handler: routes.New(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Registry:  registry,
			Auth:      authService,
			Orders:    orderService,
			Ingestion: ingestionService,
			Analytics: analyticsService,
			Customers: customersRepo,
			Catalog:   catalogRepo,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")

		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		cleanupErr := server.Shutdown(graceCtx)
		cleanupErr = multierr.Append(cleanupErr, redisClient.Close())
		cleanupErr = multierr.Append(cleanupErr, dbClient.Close())
		if cleanupErr != nil {
			logg.Error(ctx, "shutdown finished with errors", cleanupErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}

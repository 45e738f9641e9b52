package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/usxc/classroom-library-backend/api/routes"
	"github.com/usxc/classroom-library-backend/internal/inventory"
	"github.com/usxc/classroom-library-backend/internal/loans"
	"github.com/usxc/classroom-library-backend/internal/users"
	identitywebhook "github.com/usxc/classroom-library-backend/internal/webhooks/identity"
	"github.com/usxc/classroom-library-backend/pkg/config"
	"github.com/usxc/classroom-library-backend/pkg/db"
	"github.com/usxc/classroom-library-backend/pkg/logger"
	"github.com/usxc/classroom-library-backend/pkg/metrics"
	"github.com/usxc/classroom-library-backend/pkg/migrate"
	"github.com/usxc/classroom-library-backend/pkg/realtime"
	"github.com/usxc/classroom-library-backend/pkg/redis"
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	loanMetrics := metrics.NewLoanMetrics(registry)

	publisher, err := realtime.NewRedisPublisher(redisClient, cfg.Realtime.Channel)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime publisher", err)
		os.Exit(1)
	}

	usersSvc, err := users.NewService(users.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	inventorySvc, err := inventory.NewService(dbClient, inventory.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	loansSvc, err := loans.NewService(dbClient, loans.NewRepository(dbClient.DB()), usersSvc, publisher, loanMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create loans service", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Users:    usersSvc,
		Invent:   inventorySvc,
		Loans:    loansSvc,
		Registry: registry,
	}

	if cfg.Identity.WebhookSecret != "" {
		verifier, err := svix.NewWebhook(cfg.Identity.WebhookSecret)
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook verifier", err)
			os.Exit(1)
		}
		guard, err := identitywebhook.NewReplayGuard(redisClient, cfg.Identity.WebhookReplayTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create replay guard", err)
			os.Exit(1)
		}
		webhookSvc, err := identitywebhook.NewService(usersSvc)
		if err != nil {
			logg.Error(context.Background(), "failed to create identity webhook service", err)
			os.Exit(1)
		}
		deps.IdentityWebhook = webhookSvc
		deps.IdentityGuard = guard
		deps.IdentityVerifier = verifier
	} else {
		logg.Warn(context.Background(), "identity webhook secret not set, webhook route disabled")
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
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

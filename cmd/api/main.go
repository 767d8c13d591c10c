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

	"github.com/journeyos/backend/api/routes"
	"github.com/journeyos/backend/internal/directory"
	"github.com/journeyos/backend/internal/notifications"
	"github.com/journeyos/backend/internal/preferences"
	"github.com/journeyos/backend/internal/realtime"
	"github.com/journeyos/backend/internal/triggers"
	pkgauth "github.com/journeyos/backend/pkg/auth"
	"github.com/journeyos/backend/pkg/config"
	"github.com/journeyos/backend/pkg/db"
	"github.com/journeyos/backend/pkg/events"
	"github.com/journeyos/backend/pkg/logger"
	"github.com/journeyos/backend/pkg/metrics"
	"github.com/journeyos/backend/pkg/migrate"
	"github.com/journeyos/backend/pkg/pubsub"
	"github.com/journeyos/backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

// The API binary also hosts the realtime gateway and the trigger consumer so
// presence checks and pushes hit the same in-memory connection registry.
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	repo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(repo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	preferencesService, err := preferences.NewService(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create preferences service", err)
		os.Exit(1)
	}

	verifier := pkgauth.NewJWTVerifier(cfg.JWT)
	realtimeMetrics := metrics.NewRealtimeMetrics(prometheus.DefaultRegisterer)
	gateway, err := realtime.NewGateway(
		verifier,
		realtime.NewPresenceRegistry(),
		notificationsService,
		cfg.Realtime,
		logg,
		realtimeMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime gateway", err)
		os.Exit(1)
	}

	pusher, err := notifications.NewPusher(notificationsService, gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pusher", err)
		os.Exit(1)
	}

	resolver, err := triggers.NewResolver(directory.NewAdminDirectory(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create trigger resolver", err)
		os.Exit(1)
	}

	triggerHandler, err := triggers.NewHandler(notificationsService, pusher, resolver, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create trigger handler", err)
		os.Exit(1)
	}

	idempotency, err := events.NewIdempotencyManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := triggers.NewConsumer(triggerHandler, pubsubClient.TriggerSubscription(), idempotency, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create trigger consumer", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:      cfg,
		Logger:      logg,
		Verifier:    verifier,
		DB:          dbClient,
		Redis:       redisClient,
		PubSub:      pubsubClient,
		Notifier:    notificationsService,
		Preferences: preferencesService,
		Realtime:    gateway.Handler(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Run(ctx)
	}()

	server := &http.Server{Addr: addr, Handler: router}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	logg.Info(ctx, "starting api server")

	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case err := <-consumerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "trigger consumer stopped unexpectedly", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "error during server shutdown", err)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

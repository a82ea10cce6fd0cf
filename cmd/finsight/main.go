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

	"finsight/internal/advisor"
	"finsight/internal/cache"
	"finsight/internal/config"
	"finsight/internal/events"
	apphttp "finsight/internal/http"
	"finsight/internal/identity"
	"finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/services"
	"finsight/internal/store"
)

func main() {
	// Optional .env file for local development.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", log.FieldError, err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := identity.RunMigrations(cfg.SQLiteDBPath); err != nil {
		return err
	}
	users, err := identity.NewUserStore(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer users.Close()

	tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	idsvc := identity.NewService(users, tokens, logger)

	states := store.NewStateStore(cfg.DataDir, logger)

	// The audit trail over AMQP is optional; without a broker URL the
	// app runs standalone.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		bus, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("amqp unavailable, audit events disabled", log.FieldError, err.Error())
		} else {
			defer bus.Close()
			publisher = bus
		}
	}

	finance := services.NewFinanceService(states, publisher, logger)

	caches := cache.NewManager()
	defer caches.Stop()

	// The text-generation collaborator is held here, never inside the
	// persisted financial state. Without an API key the advisory pages
	// degrade gracefully.
	var generator advisor.Generator
	if cfg.GeminiAPIKey != "" {
		client, err := advisor.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Warn("gemini unavailable, advisory disabled", log.FieldError, err.Error())
		} else {
			generator = client
			caches.Register(client.ResponseCache())
		}
	}
	caches.StartCleanup(5 * time.Minute)

	srv, err := apphttp.NewServer(apphttp.Config{
		Port: cfg.Port,
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitRPM,
		},
	}, finance, idsvc, generator, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			log.FieldOperation, log.OpStartup,
			"addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", log.FieldOperation, log.OpShutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

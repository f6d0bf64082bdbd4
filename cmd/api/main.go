package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/shopkart/internal/auth"
	"github.com/dejobratic/shopkart/internal/config"
	"github.com/dejobratic/shopkart/internal/database"
	"github.com/dejobratic/shopkart/internal/events"
	"github.com/dejobratic/shopkart/internal/httpx"
	"github.com/dejobratic/shopkart/internal/invoice"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/server"
	"github.com/dejobratic/shopkart/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.Telemetry.LogLevel)).
		With("service", cfg.Service.Name, "environment", cfg.Service.Environment)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter(cfg.Service.Name)

	policy, err := domain.ParsePolicy(cfg.Shop.OperatorStatusPolicy)
	if err != nil {
		return err
	}

	var (
		storage *server.Storage
		ready   func(context.Context) error
	)
	switch cfg.Database.Driver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		storage = &server.NewMemoryStorage().Storage

	default:
		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("create database pool: %w", err)
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			status, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("migrations completed",
				"from_version", status.From,
				"to_version", status.To,
				"applied", status.Applied(),
			)
		}

		dbMetrics, err := database.NewMetrics(meter)
		if err != nil {
			return fmt.Errorf("create database metrics: %w", err)
		}

		storage = server.NewPostgresStorage(pool, dbMetrics)
		ready = func(ctx context.Context) error { return database.CheckReady(ctx, pool) }
	}

	publisher, err := newPublisher(ctx, cfg.Events, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("closing event publisher", "error", err)
		}
	}()

	handler, err := server.NewRouter(server.Options{
		Logger:      logger,
		Meter:       meter,
		Storage:     storage,
		Issuer:      auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Publisher:   publisher,
		Invoices:    invoice.NewRenderer(),
		Policy:      policy,
		Brand:       cfg.Shop.BrandName,
		BuyNowTTL:   cfg.Shop.BuyNowTTL,
		RateLimiter: httpx.NewRateLimiter(cfg.Shop.RateLimitRPS, cfg.Shop.RateLimitBurst),
		MetricsPath: cfg.HTTP.MetricsPath,
		Ready:       ready,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "storage", cfg.Database.Driver, "policy", policy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

// newPublisher connects to RabbitMQ when AMQP_URL is set and falls back to dropping events otherwise.
func newPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set; order events are not published")
		return events.NewNoopPublisher(), nil
	}

	publisher, err := events.NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	logger.Info("publishing order events", "exchange", cfg.Exchange)
	return publisher, nil
}

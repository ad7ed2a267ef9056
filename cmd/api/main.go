// Package main is the entry point for the crusher API server.
//
// It loads configuration, connects the database pool, wires the watcher and
// campground services with their Slack and SQS dependencies, builds the HTTP
// server with the core chassis (middleware, routing, health checks), and
// starts listening. Graceful shutdown is handled via OS signal interception
// (SIGINT, SIGTERM).
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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/jacobstr/crusher/internal/api/handlers"
	"github.com/jacobstr/crusher/internal/config"
	"github.com/jacobstr/crusher/internal/core"
	"github.com/jacobstr/crusher/internal/db"
	"github.com/jacobstr/crusher/internal/notifications/slack"
	"github.com/jacobstr/crusher/internal/queue"
	"github.com/jacobstr/crusher/internal/watchers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(config.NewSSMProvider(awsRegion()))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("crusher API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:               cfg.Database.URL.Unmask(),
		MaxConns:          cfg.Database.MaxConns,
		MinConns:          cfg.Database.MinConns,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		AcquireTimeout:    cfg.Database.AcquireTimeout,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	})
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer pool.Close()

	watcherRepo := db.NewWatcherRepository(pool)
	directory := db.NewCampgroundRepository(pool)

	slackClient := slack.NewClient(slack.ClientConfig{
		Token:          cfg.Slack.BotToken.Unmask(),
		ResultsChannel: cfg.Slack.ResultsChannel,
		OpsChannel:     cfg.Slack.OpsChannel,
		Logger:         logger,
	})

	events, err := newEventPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}

	watcherService := watchers.NewService(watchers.ServiceConfig{
		Repo:      watcherRepo,
		Directory: directory,
		Notifier:  slackClient,
		Events:    events,
		Logger:    logger,
	})

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	srv.HealthProbes = append(srv.HealthProbes, &db.PingProbe{Pool: pool})

	watcherHandler := handlers.NewWatcherHandler(watcherService, logger)
	campgroundHandler := handlers.NewCampgroundHandler(directory, logger)
	slackHandler := handlers.NewSlackHandler(watcherService, directory, logger)

	srv.RouteRegistrars = append(srv.RouteRegistrars,
		watcherHandler.RegisterRoutes,
		campgroundHandler.RegisterRoutes,
		slackHandler.RegisterRoutes,
	)

	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// newEventPublisher builds the SQS lifecycle event trigger, or returns nil
// when no queue is configured.
func newEventPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (watchers.EventPublisher, error) {
	if cfg.AWS.EventQueueURL == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = &cfg.AWS.EndpointURL
		}
	})
	return queue.NewEventTrigger(client, cfg.AWS.EventQueueURL, logger), nil
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// awsRegion reads the region before full config processing; the SSM provider
// needs it to resolve the rest of the configuration.
func awsRegion() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "us-west-2"
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// Compile-time check that the pgx ping probe satisfies the chassis contract.
var _ core.HealthProbe = (*db.PingProbe)(nil)

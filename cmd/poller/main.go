// Package main is the entry point for the crusher poller daemon.
//
// The poller drives the availability scrape loop: every interval it lists the
// registered watchers, fetches and scores upstream availability for each one,
// persists the results, and lets the notification policy decide whether to
// message anyone. A heartbeat (marker file plus CloudWatch metric) is emitted
// at the end of every cycle so external monitors can detect a wedged loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/jacobstr/crusher/internal/availability"
	"github.com/jacobstr/crusher/internal/config"
	"github.com/jacobstr/crusher/internal/db"
	"github.com/jacobstr/crusher/internal/notifications/slack"
	"github.com/jacobstr/crusher/internal/scheduler"
	"github.com/jacobstr/crusher/internal/types"
	"github.com/jacobstr/crusher/internal/watchers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(config.NewSSMProvider(awsRegion()))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("crusher poller starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"interval", cfg.Poll.Interval,
	)

	// Cancelled on SIGINT/SIGTERM; the poller finishes the in-flight watcher
	// writes and exits between cycles.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	source := availability.NewClient(availability.ClientConfig{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})

	search := availability.NewService(availability.ServiceConfig{
		Source:    source,
		Directory: directory,
		Alerts:    slackClient,
		Logger:    logger,
	})

	watcherService := watchers.NewService(watchers.ServiceConfig{
		Repo:      watcherRepo,
		Directory: directory,
		Notifier:  slackClient,
		Logger:    logger,
	})

	heartbeat, err := newHeartbeat(ctx, cfg)
	if err != nil {
		return err
	}

	runner := scheduler.NewCycleRunner(scheduler.CycleRunnerConfig{
		Watchers:  watcherRepo,
		Search:    search,
		Applier:   watcherService,
		Heartbeat: heartbeat,
		Logger:    logger,
	})

	poller := scheduler.NewPoller(runner, cfg.Poll.Interval, logger)
	poller.Run(ctx)

	logger.Info("poller stopped cleanly")
	return nil
}

// newHeartbeat assembles the configured heartbeat sinks: a marker file for
// local supervision and a CloudWatch metric for deployed environments.
func newHeartbeat(ctx context.Context, cfg *config.Config) (types.Heartbeat, error) {
	var sinks scheduler.MultiHeartbeat

	if cfg.Poll.HeartbeatFile != "" {
		sinks = append(sinks, &scheduler.FileHeartbeat{Path: cfg.Poll.HeartbeatFile})
	}

	if cfg.AWS.MetricNamespace != "" && cfg.Environment != "local" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = &cfg.AWS.EndpointURL
			}
		})
		sinks = append(sinks, scheduler.NewCloudWatchHeartbeat(client, cfg.AWS.MetricNamespace))
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return sinks, nil
}

func awsRegion() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "us-west-2"
}

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

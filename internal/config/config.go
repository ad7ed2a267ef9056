// Package config defines the global configuration structure for the crusher
// service. Configuration is loaded once at process startup and is immutable
// thereafter, following 12-Factor principles.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format causes startup to fail
// immediately.
package config

import (
	"time"

	"github.com/jacobstr/crusher/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for crusher. It is populated
// once during process initialization and never modified. Sub-components
// receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"crusher"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server   ServerConfig
	Database DatabaseConfig
	AWS      AWSConfig
	Slack    SlackConfig
	Upstream UpstreamConfig
	Poll     PollConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	// Resolved from SSM or Env
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-west-2"`

	// EventQueueURL is the SQS queue that receives watcher lifecycle events.
	// Empty disables event publishing.
	EventQueueURL string `envconfig:"SQS_WATCHER_EVENTS"`

	// MetricNamespace is the CloudWatch namespace for poll-cycle heartbeat
	// metrics. Empty disables the CloudWatch heartbeat.
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Crusher"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// SlackConfig holds Slack delivery credentials and channel routing.
type SlackConfig struct {
	BotToken SecretString `envconfig:"SLACK_BOT_TOKEN" validate:"required"`
	// ResultsChannel receives a mirror copy of every notification sent to a
	// watcher's owner.
	ResultsChannel string `envconfig:"SLACK_RESULTS_CHANNEL" default:"#campsites"`
	// OpsChannel receives operational alerts (fetch failures, cycle errors).
	OpsChannel string `envconfig:"SLACK_OPS_CHANNEL" default:"#crusher-ops"`
}

// UpstreamConfig holds availability data source settings.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"UPSTREAM_BASE_URL" default:"https://www.recreation.gov"`
	Timeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"15s"`
}

// PollConfig holds poll loop scheduling settings.
type PollConfig struct {
	Interval time.Duration `envconfig:"POLL_INTERVAL" default:"5m" validate:"min=1m"`
	// HeartbeatFile is touched after every completed cycle so external
	// monitors can detect a wedged poller. Empty disables the file heartbeat.
	HeartbeatFile string `envconfig:"POLL_HEARTBEAT_FILE" default:"/tmp/crusher-heartbeat"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)

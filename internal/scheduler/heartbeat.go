package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/jacobstr/crusher/internal/types"
)

// MetricPollCycleCompleted is the CloudWatch metric emitted once per
// completed poll cycle. An alarm on its absence is the external
// crash-detection signal.
const MetricPollCycleCompleted = "PollCycleCompleted"

// FileHeartbeat records liveness by touching a marker file. External
// supervision (container healthcheck, cron) alarms when the file's mtime
// goes stale.
type FileHeartbeat struct {
	Path string
}

// Compile-time assertion that FileHeartbeat implements Heartbeat.
var _ types.Heartbeat = (*FileHeartbeat)(nil)

// Beat creates the marker file if needed and bumps its timestamps to now.
func (h *FileHeartbeat) Beat(_ context.Context) error {
	f, err := os.OpenFile(h.Path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("touching heartbeat file %s: %w", h.Path, err)
	}
	f.Close()

	now := time.Now()
	if err := os.Chtimes(h.Path, now, now); err != nil {
		return fmt.Errorf("updating heartbeat mtime %s: %w", h.Path, err)
	}
	return nil
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchHeartbeat emits the PollCycleCompleted metric to CloudWatch.
type CloudWatchHeartbeat struct {
	client    CloudWatchClient
	namespace string
}

var _ types.Heartbeat = (*CloudWatchHeartbeat)(nil)

// NewCloudWatchHeartbeat creates a CloudWatchHeartbeat publishing to the
// given namespace.
func NewCloudWatchHeartbeat(client CloudWatchClient, namespace string) *CloudWatchHeartbeat {
	return &CloudWatchHeartbeat{client: client, namespace: namespace}
}

// Beat emits one PollCycleCompleted datum.
func (h *CloudWatchHeartbeat) Beat(ctx context.Context) error {
	_, err := h.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(h.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricPollCycleCompleted),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("emitting heartbeat metric: %w", err)
	}
	return nil
}

// MultiHeartbeat fans a beat out to several sinks, returning the first
// error after attempting all of them.
type MultiHeartbeat []types.Heartbeat

var _ types.Heartbeat = (MultiHeartbeat)(nil)

// Beat invokes every sink.
func (m MultiHeartbeat) Beat(ctx context.Context) error {
	var firstErr error
	for _, h := range m {
		if err := h.Beat(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

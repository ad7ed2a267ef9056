// Package queue provides an SQS-based publisher for watcher lifecycle
// events, letting external automation (an immediate-poll kicker, audit
// tooling) react to registrations without coupling to the API process.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/jacobstr/crusher/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// WatcherEvent is the message body published for a lifecycle event.
type WatcherEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"` // e.g. "watcher.created"
	Timestamp time.Time `json:"timestamp"`

	WatcherID     string `json:"watcher_id"`
	UserID        string `json:"user_id"`
	CampgroundTag string `json:"campground_tag"`
	Start         string `json:"start"`
	Length        int    `json:"length"`
}

// EventTrigger publishes watcher lifecycle events to a single SQS queue.
// Publication is best-effort: failures are logged and swallowed, since no
// core behavior depends on the event stream.
type EventTrigger struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewEventTrigger creates an EventTrigger for the given queue URL.
func NewEventTrigger(client SQSSender, queueURL string, logger *slog.Logger) *EventTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventTrigger{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Publish serializes and sends one lifecycle event.
func (t *EventTrigger) Publish(ctx context.Context, eventType string, w types.Watcher) {
	event := WatcherEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		WatcherID:     w.ID,
		UserID:        w.UserID,
		CampgroundTag: w.CampgroundTag,
		Start:         w.Start,
		Length:        w.Length,
	}

	body, err := json.Marshal(event)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to marshal watcher event",
			"event_type", eventType,
			"watcher_id", w.ID,
			"error", err,
		)
		return
	}

	_, err = t.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(t.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	})
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to publish watcher event",
			"event_type", eventType,
			"watcher_id", w.ID,
			"error", err,
		)
	}
}

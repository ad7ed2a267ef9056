package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jacobstr/crusher/internal/external"
	"github.com/jacobstr/crusher/internal/types"
)

// DefaultBaseURL is the Slack Web API origin.
const DefaultBaseURL = "https://slack.com"

// BotName is the username messages are posted under. Using a different name
// is a form of masquerading and may require extra permissions.
const BotName = "CrusherScrape"

// maxResponseBodyRead limits how much of a Slack error body we capture.
const maxResponseBodyRead = 4096

// Client posts messages through the Slack Web API. It implements both
// types.Notifier (result notifications to a watcher's owner) and
// types.AlertSink (best-effort operational alerts to the ops channel).
type Client struct {
	base    *external.BaseClient
	baseURL string
	token   string
	// resultsChannel additionally receives every result notification, so
	// the shared channel sees what individual users are told.
	resultsChannel string
	opsChannel     string
	logger         *slog.Logger
}

// Compile-time interface assertions.
var (
	_ types.Notifier  = (*Client)(nil)
	_ types.AlertSink = (*Client)(nil)
)

// ClientConfig holds the construction parameters for a Client.
type ClientConfig struct {
	// BaseURL overrides the API origin for tests. Defaults to DefaultBaseURL.
	BaseURL string
	Token   string
	// ResultsChannel is the public channel that mirrors result
	// notifications. Empty disables mirroring.
	ResultsChannel string
	// OpsChannel receives operational alerts.
	OpsChannel string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// NewClient creates a Slack client with breaker and retry defaults.
func NewClient(cfg ClientConfig, opts ...external.BaseClientOption) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		base:           external.NewBaseClient(httpClient, "slack", external.DefaultRetryPolicy(), "crusher-bot/1.0", opts...),
		baseURL:        baseURL,
		token:          cfg.Token,
		resultsChannel: cfg.ResultsChannel,
		opsChannel:     cfg.OpsChannel,
		logger:         logger,
	}
}

// NotifyResults sends the "new campsites available" message to the
// recipient (a Slack user id) and mirrors it to the shared results channel.
// The mirror is best-effort; only the direct message's failure is returned.
func (c *Client) NotifyResults(ctx context.Context, recipient string, results []types.Result) error {
	attachments := ResultsAttachments(results)

	if c.resultsChannel != "" {
		if err := c.postMessage(ctx, Message{
			Channel:     c.resultsChannel,
			Username:    BotName,
			Text:        "New campsites available!",
			Attachments: attachments,
		}); err != nil {
			c.logger.WarnContext(ctx, "failed to mirror results to channel",
				"channel", c.resultsChannel,
				"error", err,
			)
		}
	}

	return c.postMessage(ctx, Message{
		Channel:     recipient,
		Username:    BotName,
		Text:        "New campsites available!",
		Attachments: attachments,
	})
}

// Alert posts an operational alert to the ops channel. Failures are logged
// and swallowed, never propagated.
func (c *Client) Alert(ctx context.Context, text string) {
	if c.opsChannel == "" {
		return
	}
	if err := c.postMessage(ctx, Message{
		Channel: c.opsChannel,
		Text:    text,
	}); err != nil {
		c.logger.ErrorContext(ctx, "failed to post ops alert",
			"channel", c.opsChannel,
			"error", err,
		)
	}
}

// postMessage calls chat.postMessage and interprets Slack's soft-failure
// convention (HTTP 200 with ok=false).
func (c *Client) postMessage(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to marshal slack message", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build slack request", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.base.Do(req)
	if err != nil {
		return types.NewAppError(types.ErrCodeNotifyFailed, "slack delivery failed", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))
	if resp.StatusCode != http.StatusOK {
		return types.NewAppError(types.ErrCodeNotifyFailed,
			fmt.Sprintf("slack returned %d", resp.StatusCode), nil,
		).WithDetails(map[string]any{"body": string(raw)})
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return types.NewAppError(types.ErrCodeNotifyFailed,
			"slack response was not valid JSON", err)
	}
	if !api.OK {
		return types.NewAppError(types.ErrCodeNotifyFailed,
			fmt.Sprintf("slack rejected message: %s", api.Error), nil)
	}
	return nil
}

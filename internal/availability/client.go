package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/jacobstr/crusher/internal/external"
	"github.com/jacobstr/crusher/internal/types"
)

// DefaultBaseURL is the production upstream for campsite availability.
const DefaultBaseURL = "https://www.recreation.gov"

// upstreamUserAgent is sent on every availability request. The upstream
// rejects requests with a default Go user agent.
const upstreamUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/73.0.3683.75 Safari/537.36"

// maxErrorBodyRead limits how much of an upstream error body is captured
// into error details.
const maxErrorBodyRead = 4096

// Client fetches per-month availability payloads from the recreation.gov
// month endpoint. It implements types.AvailabilitySource.
//
// All requests go through an external.BaseClient for circuit breaking and
// retry behavior, and advertise gzip so large month payloads arrive
// compressed.
type Client struct {
	base    *external.BaseClient
	baseURL string
}

// Compile-time assertion that Client implements AvailabilitySource.
var _ types.AvailabilitySource = (*Client)(nil)

// ClientConfig holds the construction parameters for a Client.
type ClientConfig struct {
	// BaseURL overrides the upstream origin, used for tests and local
	// fixtures. Defaults to DefaultBaseURL.
	BaseURL string
	Timeout time.Duration
}

// NewClient creates an availability Client with breaker and retry defaults.
func NewClient(cfg ClientConfig, opts ...external.BaseClientOption) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		base:    external.NewBaseClient(httpClient, "recreation-gov", external.DefaultRetryPolicy(), upstreamUserAgent, opts...),
		baseURL: baseURL,
	}
}

// FetchMonth retrieves the availability payload for one campground and one
// calendar month. monthStart must be a month-start instant; it is rendered
// as the upstream's start_date query parameter.
//
// Failures are returned as AppErrors with code upstream_availability_unavailable
// carrying the upstream status and (truncated) body for observability.
func (c *Client) FetchMonth(ctx context.Context, campgroundID string, monthStart time.Time) (*types.MonthAvailability, error) {
	endpoint := fmt.Sprintf("%s/api/camps/availability/campground/%s/month", c.baseURL, campgroundID)

	query := url.Values{}
	query.Set("start_date", monthStart.UTC().Format("2006-01-02T00:00:00.000Z"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build availability request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, wrapFetchError(campgroundID, monthStart, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyRead))
		appErr := types.NewAppError(types.ErrCodeUpstreamAvailability,
			fmt.Sprintf("availability request for campground %s returned %d", campgroundID, resp.StatusCode),
			nil,
		).WithDetails(map[string]any{
			"status":      resp.StatusCode,
			"body":        string(body),
			"campground":  campgroundID,
			"month_start": monthStart.UTC().Format(time.RFC3339),
		})
		return nil, appErr
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, wrapFetchError(campgroundID, monthStart, err)
	}
	defer reader.Close()

	var payload types.MonthAvailability
	if err := json.NewDecoder(reader).Decode(&payload); err != nil {
		return nil, wrapFetchError(campgroundID, monthStart, err)
	}
	if payload.Campsites == nil {
		payload.Campsites = map[string]types.CampsiteMonth{}
	}
	return &payload, nil
}

// decodeBody returns a reader over the response body, transparently
// decompressing when the upstream honored our gzip request.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		return gz, nil
	}
	return io.NopCloser(resp.Body), nil
}

func wrapFetchError(campgroundID string, monthStart time.Time, err error) *types.AppError {
	return types.NewAppError(types.ErrCodeUpstreamAvailability,
		fmt.Sprintf("availability fetch failed for campground %s", campgroundID),
		err,
	).WithDetails(map[string]any{
		"campground":  campgroundID,
		"month_start": monthStart.UTC().Format(time.RFC3339),
	})
}

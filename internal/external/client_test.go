package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobstr/crusher/internal/types"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    time.Millisecond,
		MaxWait:    10 * time.Millisecond,
	}
}

func newTestBaseClient(name string) (*BaseClient, *[]time.Duration) {
	var sleeps []time.Duration
	client := NewBaseClient(
		&http.Client{Timeout: time.Second},
		name,
		testPolicy(),
		"test-agent/1.0",
		WithSleepFunc(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	return client, &sleeps
}

func mustRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestDo_Success(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := newTestBaseClient("test-success")
	resp, err := client.Do(mustRequest(t, server.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-agent/1.0", gotUserAgent)
}

func TestDo_PropagatesRequestID(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
	}))
	defer server.Close()

	client, _ := newTestBaseClient("test-request-id")
	ctx := types.WithRequestID(context.Background(), "req-abc123")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "req-abc123", gotRequestID)
}

func TestDo_RetriesServerErrorThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, sleeps := newTestBaseClient("test-retry")
	resp, err := client.Do(mustRequest(t, server.URL))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 3, calls)
	assert.Len(t, *sleeps, 2)
}

func TestDo_NonRetryableStatusReturnedAsIs(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := newTestBaseClient("test-404")
	resp, err := client.Do(mustRequest(t, server.URL))
	require.NoError(t, err)
	resp.Body.Close()

	// 4xx (other than 429) is the caller's problem, not a retry trigger.
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestDo_RateLimitedMapsToAppError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestBaseClient("test-429")
	_, err := client.Do(mustRequest(t, server.URL))
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamRateLimited, appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.HTTPStatus())
}

func TestDo_ExhaustedRetriesMapToUpstreamUnavailable(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := newTestBaseClient("test-502")
	_, err := client.Do(mustRequest(t, server.URL))
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamUnavailable, appErr.Code)
	assert.Equal(t, 3, calls)
}

func TestDo_RetryAfterHeaderHonored(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, sleeps := newTestBaseClient("test-retry-after")
	_, err := client.Do(mustRequest(t, server.URL))
	require.Error(t, err)

	require.Len(t, *sleeps, 2)
	// Retry-After wins over backoff, clamped to MaxWait.
	assert.Equal(t, client.retryPolicy.MaxWait, (*sleeps)[0])
}

func TestDo_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestBaseClient("test-breaker")

	// Two exhausted calls burn through 6 attempts, tripping the breaker.
	for range 2 {
		_, err := client.Do(mustRequest(t, server.URL))
		require.Error(t, err)
	}
	attemptsBefore := calls

	_, err := client.Do(mustRequest(t, server.URL))
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamRateLimited, appErr.Code)
	// The open breaker short-circuits without touching the server.
	assert.Equal(t, attemptsBefore, calls)
}

func TestDo_ReplaysBodyAcrossRetries(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 32)
		n, _ := r.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
		if len(bodies) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := newTestBaseClient("test-body-replay")
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		server.URL, strings.NewReader(`{"k":"v"}`))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, bodies, 2)
	assert.Equal(t, `{"k":"v"}`, bodies[0])
	assert.Equal(t, `{"k":"v"}`, bodies[1])
}

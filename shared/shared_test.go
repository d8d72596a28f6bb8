package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestManualClockFiresDueTimers(t *testing.T) {
	clock := NewManualClock(epoch)
	timer := clock.NewTimer(time.Hour)
	assert.Equal(t, 1, clock.PendingTimers())

	clock.Advance(59 * time.Minute)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	clock.Advance(time.Minute)
	select {
	case fired := <-timer.C():
		assert.Equal(t, epoch.Add(time.Hour), fired)
	default:
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, 0, clock.PendingTimers())
	assert.Equal(t, epoch.Add(time.Hour), clock.Now())
}

func TestManualClockStopAndReset(t *testing.T) {
	clock := NewManualClock(epoch)
	timer := clock.NewTimer(time.Minute)

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	clock.Advance(time.Hour)
	assert.Len(t, timer.C(), 0)

	timer.Reset(5 * time.Minute)
	assert.Equal(t, 1, clock.PendingTimers())
	clock.Advance(5 * time.Minute)
	assert.Len(t, timer.C(), 1)
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	clock := NewManualClock(epoch)
	limiter := NewHTTPRequestRateLimiterWithClock(2*time.Second, clock)

	require.NoError(t, limiter.Wait(context.Background()))

	done := make(chan error, 1)
	go func() { done <- limiter.Wait(context.Background()) }()

	require.Eventually(t, func() bool { return clock.PendingTimers() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("second request was not delayed")
	default:
	}

	clock.Advance(2 * time.Second)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second request never released")
	}
}

func TestRateLimiterHonoursCancellation(t *testing.T) {
	clock := NewManualClock(epoch)
	limiter := NewHTTPRequestRateLimiterWithClock(time.Minute, clock)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.Canceled)

	clock.Advance(time.Minute)
	assert.NoError(t, limiter.Wait(context.Background()))
}

func TestServiceErrorChain(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewServiceError(ErrorCategoryNetwork, "FETCH_FAILED", "fetch failed", "Test_Service", "fetch", true, cause)

	assert.Equal(t, "[network:FETCH_FAILED] fetch failed", err.Error())
	assert.ErrorIs(t, err, cause)

	category, ok := CategoryOf(fmtWrap(err))
	assert.True(t, ok)
	assert.Equal(t, ErrorCategoryNetwork, category)

	_, ok = CategoryOf(cause)
	assert.False(t, ok)
}

func fmtWrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "outer: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestWrapErrorKeepsExistingCategory(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrorCategoryDatabase, "X", "svc", "op", false))

	inner := NewServiceError(ErrorCategoryValidation, "23514", "bad row", "database", "insert", false, nil)
	wrappedErr := WrapError(fmtWrap(inner), ErrorCategoryDatabase, "IPO_REFERENCES_FAILED", "svc", "op", true)
	assert.Same(t, inner, wrappedErr)

	plain := WrapError(errors.New("boom"), ErrorCategoryDatabase, "IPO_REFERENCES_FAILED", "svc", "op", true)
	assert.Equal(t, ErrorCategoryDatabase, plain.Category)
	assert.True(t, plain.Retryable)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("i/o timeout")))
	assert.True(t, IsRetryableError(errors.New("429 Too Many Requests")))
	assert.False(t, IsRetryableError(errors.New("invalid symbol")))
	assert.False(t, IsRetryableError(NewServiceError(ErrorCategoryNetwork, "X", "timeout", "svc", "op", false, nil)))
}

func TestBuildBatchErrorSummary(t *testing.T) {
	summary := BuildBatchErrorSummary(7, 5, []error{
		errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d"),
	})
	assert.Equal(t, "batch completed with 7 successes and 5 failures; a; b; c; and 2 additional errors", summary)
}

func TestServiceMetricsSnapshot(t *testing.T) {
	metrics := NewServiceMetrics("Test_Service")
	metrics.RecordRequest(true, 10*time.Millisecond)
	metrics.RecordRequest(false, 30*time.Millisecond)
	metrics.AddToCounter("rows", 4)
	metrics.IncrementCounter("rows")

	assert.Equal(t, 50.0, metrics.GetSuccessRate())
	assert.Equal(t, int64(5), metrics.Counter("rows"))

	snapshot := metrics.Snapshot()
	assert.Equal(t, "Test_Service", snapshot["service_name"])
	assert.Equal(t, int64(2), snapshot["total_requests"])
	assert.Equal(t, int64(20), snapshot["average_time_ms"])
	assert.Equal(t, map[string]int64{"rows": 5}, snapshot["counters"])
}

func TestSchedulerConfigDefaults(t *testing.T) {
	var config SchedulerConfig
	config.ApplyDefaults()
	assert.Equal(t, SchedulerConfig{Interval: 6 * time.Hour, CheckEvery: time.Hour, RetryAfter: 5 * time.Minute}, config)

	assert.Equal(t, time.Hour, NewPeriodicJobConfig(time.Hour).CheckEvery)
	assert.Equal(t, time.Hour, NewIPOSyncSchedulerConfig(12*time.Hour).CheckEvery)
}

func TestUnifiedConfigurationDefaults(t *testing.T) {
	config := &UnifiedConfiguration{Cache: CacheConfig{DefaultTTL: 30 * time.Minute}}
	config.ValidateAndApplyDefaults()

	defaults := NewDefaultUnifiedConfiguration()
	assert.Equal(t, defaults.Database, config.Database)
	assert.Equal(t, 30*time.Minute, config.Cache.DefaultTTL)
	assert.Equal(t, defaults.Cache.MaxSize, config.Cache.MaxSize)
	assert.Equal(t, defaults.Scheduler, config.Scheduler)
}

func TestExecuteHTTPRequestWithRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BrowserUserAgent, r.Header.Get("User-Agent"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	request, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	SetBrowserLikeHeaders(request.Header, "text/html")

	factory := NewHTTPClientFactory(5 * time.Second)
	defer factory.CloseIdleConnections()
	client := factory.Client(0)
	assert.Same(t, client, factory.Client(5*time.Second))

	response, err := ExecuteHTTPRequestWithRetry(context.Background(), client, request, 1)
	require.NoError(t, err)
	response.Body.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExecuteHTTPRequestWithRetryReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	request, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = ExecuteHTTPRequestWithRetry(context.Background(), server.Client(), request, 0)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, 1, statusErr.Attempt)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

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

// recordSleeps replaces Sleep with a recorder for the duration of the test.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	old := Sleep
	Sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { Sleep = old })
	return &waits
}

func getter(url string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDo_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := Do(context.Background(), ts.Client(), getter(ts.URL), Policy{MaxAttempts: 3})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_429HonoursRetryAfterThenSucceeds(t *testing.T) {
	waits := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := Do(context.Background(), ts.Client(), getter(ts.URL), Policy{MaxAttempts: 3})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{7 * time.Second, 7 * time.Second}, *waits)
}

func TestDo_429UsesDefaultRetryAfter(t *testing.T) {
	waits := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := Do(context.Background(), ts.Client(), getter(ts.URL), Policy{DefaultRetryAfter: time.Minute})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, []time.Duration{time.Minute}, *waits)
}

func TestDo_429ExhaustsAttempts(t *testing.T) {
	recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := Do(context.Background(), ts.Client(), getter(ts.URL), Policy{MaxAttempts: 3})
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.False(t, rl.TooLong)
	assert.Equal(t, time.Second, rl.RetryAfter)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_429WaitTooLong(t *testing.T) {
	waits := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "400")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := Do(context.Background(), ts.Client(), getter(ts.URL), Policy{MaxAttempts: 3, MaxRetryAfter: 5 * time.Minute})
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.True(t, rl.TooLong)
	assert.Equal(t, 400*time.Second, rl.RetryAfter)
	assert.Contains(t, err.Error(), "too long")
	assert.Empty(t, *waits, "must not block on an over-long wait")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_NonRetryableStatus(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"title":"Forbidden","detail":"client-not-enrolled"}`))
	}))
	defer ts.Close()

	_, err := Do(context.Background(), ts.Client(), getter(ts.URL), Policy{MaxAttempts: 3, RetryTransport: true})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, "client-not-enrolled", se.Detail)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type failingTransport struct {
	calls int32
	after int32
}

func (f *failingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.after > 0 && n > f.after {
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusOK)
		return rec.Result(), nil
	}
	return nil, errors.New("connection reset")
}

func TestDo_TransportErrorBackoff(t *testing.T) {
	waits := recordSleeps(t)
	ft := &failingTransport{}
	client := &http.Client{Transport: ft}

	_, err := Do(context.Background(), client, getter("http://example.invalid"), Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		RetryTransport: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, int32(3), atomic.LoadInt32(&ft.calls))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *waits)
}

func TestDo_TransportErrorRecovers(t *testing.T) {
	recordSleeps(t)
	ft := &failingTransport{after: 1}
	client := &http.Client{Transport: ft}

	resp, err := Do(context.Background(), client, getter("http://example.invalid"), Policy{
		MaxAttempts:    3,
		RetryTransport: true,
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&ft.calls))
}

func TestDo_TransportErrorNotRetried(t *testing.T) {
	ft := &failingTransport{}
	client := &http.Client{Transport: ft}

	_, err := Do(context.Background(), client, getter("http://example.invalid"), Policy{MaxAttempts: 3})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ft.calls))
}

func TestDo_OnResponseSeesEveryResponse(t *testing.T) {
	recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var seen []int
	resp, err := Do(context.Background(), ts.Client(), getter(ts.URL), Policy{
		OnResponse: func(r *http.Response) { seen = append(seen, r.StatusCode) },
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, []int{http.StatusTooManyRequests, http.StatusOK}, seen)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Do(ctx, ts.Client(), getter(ts.URL), Policy{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"absent", "", 60 * time.Second},
		{"seconds", "400", 400 * time.Second},
		{"zero", "0", 0},
		{"garbage", "soon", 60 * time.Second},
		{"negative", "-5", 60 * time.Second},
		{"past date", "Mon, 02 Jan 2006 15:04:05 GMT", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, RetryAfter(h, 60*time.Second))
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&RateLimitedError{}))
	assert.False(t, IsRateLimited(&StatusError{StatusCode: 500}))
	assert.False(t, IsRateLimited(nil))
}

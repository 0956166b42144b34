package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(srv.URL, "key-id", "key", 5*time.Second, logger, obs.NewMetrics(prometheus.NewRegistry()))
	c.retryBaseWait = 5 * time.Millisecond
	return c, &calls
}

func TestPost_RateLimitedRetriesThreeTimes(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	start := time.Now()
	err := c.post(context.Background(), "/search/serp/region/", map[string]string{}, nil)
	elapsed := time.Since(start)

	if !IsKind(err, KindRateLimited) {
		t.Fatalf("expected rate_limited, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 4 {
		t.Fatalf("expected initial call plus 3 retries, got %d calls", got)
	}
	// the waits grow linearly: 1x, 2x, 3x the base wait
	if min := 6 * c.retryBaseWait; elapsed < min {
		t.Fatalf("expected at least %s of backoff, took %s", min, elapsed)
	}
}

func TestPost_RateLimitedThenSuccess(t *testing.T) {
	var n int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{},"status":"ok"}`))
	})

	if err := c.post(context.Background(), "/search/serp/region/", map[string]string{}, nil); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected recovery on the first retry, got %d calls", got)
	}
}

func TestPost_ServerErrorNotRetried(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.post(context.Background(), "/search/serp/region/", map[string]string{}, nil)
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("non-429 failures must surface immediately, got %d calls", got)
	}
}

func TestPost_ContextCancelledDuringBackoff(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.retryBaseWait = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := c.post(ctx, "/search/serp/region/", map[string]string{}, nil)
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("expected unavailable on cancellation, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("cancellation must stop the retry loop, got %d calls", got)
	}
}

func TestPost_SendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		w.Write([]byte(`{"data":{},"status":"ok"}`))
	})

	if err := c.post(context.Background(), "/search/serp/region/", map[string]string{}, nil); err != nil {
		t.Fatal(err)
	}
	if gotUser != "key-id" || gotPass != "key" {
		t.Fatalf("credentials not sent, got %q/%q", gotUser, gotPass)
	}
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		msg  string
		want Kind
	}{
		{"endpoint not available in sandbox", KindSandbox},
		{"hotel not found", KindNotFound},
		{"no rates available", KindTransient},
		{"too many requests", KindRateLimited},
		{"internal provider failure", KindUnavailable},
	}
	for _, tc := range cases {
		if got := classifyAPIError("/x/", tc.msg).Kind; got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.msg, tc.want, got)
		}
	}
}

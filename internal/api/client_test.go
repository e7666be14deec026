package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"groundctl/internal/config"
	"groundctl/internal/telemetry"
)

func testConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:        baseURL,
		RequestTimeout: 100 * time.Millisecond,
		MaxAttempts:    2,
		RetryDelay:     time.Millisecond,
		ProbeAttempts:  3,
		ProbeDelay:     time.Millisecond,
		InsecureProbe:  true,
	}
}

// countingServer serves handler and counts the requests it receives.
func countingServer(t *testing.T, handler func(n int32, w http.ResponseWriter, r *http.Request)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		handler(n, w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func hang(r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(2 * time.Second):
	}
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	for _, cat := range telemetry.Categories {
		t.Run(cat.String(), func(t *testing.T) {
			srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})
			m := NewMetrics(prometheus.NewRegistry())
			c := NewClient(testConfig(srv.URL), nil, m)

			body, ok := c.Fetch(context.Background(), cat.Endpoint())
			if ok || body != nil {
				t.Fatalf("expected absent, got %s", body)
			}
			if got := calls.Load(); got != 1 {
				t.Fatalf("expected 1 call, got %d", got)
			}
			if got := testutil.ToFloat64(m.Requests.WithLabelValues(string(cat.Endpoint()), outcomeNotFound)); got != 1 {
				t.Errorf("not_found counter = %v", got)
			}
			if got := testutil.ToFloat64(m.Absent.WithLabelValues(string(cat.Endpoint()))); got != 1 {
				t.Errorf("absent counter = %v", got)
			}
		})
	}
}

func TestFetchTimeoutsExhaustRetries(t *testing.T) {
	for _, cat := range telemetry.Categories {
		t.Run(cat.String(), func(t *testing.T) {
			srv, calls := countingServer(t, func(_ int32, _ http.ResponseWriter, r *http.Request) {
				hang(r)
			})
			c := NewClient(testConfig(srv.URL), nil, nil)

			if _, err := c.Get(context.Background(), cat.Endpoint()); !errors.Is(err, ErrTimeout) {
				t.Fatalf("expected ErrTimeout, got %v", err)
			}
			if got := calls.Load(); got != 2 {
				t.Fatalf("expected 2 attempts, got %d", got)
			}
			if _, ok := c.Fetch(context.Background(), cat.Endpoint()); ok {
				t.Fatalf("expected absent after exhausted retries")
			}
		})
	}
}

func TestFetchTimeoutThenSuccess(t *testing.T) {
	srv, calls := countingServer(t, func(n int32, w http.ResponseWriter, r *http.Request) {
		if n == 1 {
			hang(r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rovers": []}`))
	})
	c := NewClient(testConfig(srv.URL), nil, nil)

	body, ok := c.Fetch(context.Background(), telemetry.EndpointRovers)
	if !ok {
		t.Fatalf("expected payload after retry")
	}
	if string(body) != `{"rovers": []}` {
		t.Fatalf("unexpected body %s", body)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestFetchUnexpectedStatusRetried(t *testing.T) {
	srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := NewClient(testConfig(srv.URL), nil, nil)

	_, err := c.Get(context.Background(), telemetry.EndpointMissions)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("StatusError should match ErrUnexpectedStatus")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestFetchDoesNotFollowRedirects(t *testing.T) {
	followed := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rovers", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	})
	mux.HandleFunc("/elsewhere", func(w http.ResponseWriter, _ *http.Request) {
		followed.Add(1)
		_, _ = w.Write([]byte(`{"rovers": []}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL+"/api"), nil, nil)
	if _, ok := c.Fetch(context.Background(), telemetry.EndpointRovers); ok {
		t.Fatalf("redirect should not produce data")
	}
	if followed.Load() != 0 {
		t.Fatalf("redirect target was requested")
	}
}

func TestFetchMalformedBody(t *testing.T) {
	srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rovers": [`))
	})
	c := NewClient(testConfig(srv.URL), nil, nil)

	if _, err := c.Get(context.Background(), telemetry.EndpointRovers); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestFetchConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(testConfig(url), nil, nil)
	if _, err := c.Get(context.Background(), telemetry.EndpointStatus); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestFetchSendsRequestID(t *testing.T) {
	var got atomic.Value
	srv, _ := countingServer(t, func(_ int32, w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{}`))
	})
	c := NewClient(testConfig(srv.URL), nil, nil)

	ctx := WithRequestID(context.Background(), "cycle-42")
	if _, ok := c.Fetch(ctx, telemetry.EndpointStatus); !ok {
		t.Fatalf("expected payload")
	}
	if got.Load() != "cycle-42" {
		t.Fatalf("X-Request-ID = %v", got.Load())
	}
}

func TestFetchCancelledContextIsNotRetried(t *testing.T) {
	srv, calls := countingServer(t, func(_ int32, _ http.ResponseWriter, r *http.Request) {
		hang(r)
	})
	cfg := testConfig(srv.URL)
	cfg.RequestTimeout = 5 * time.Second
	c := NewClient(cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	_, err := c.Get(ctx, telemetry.EndpointTelemetry)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := calls.Load(); got > 1 {
		t.Fatalf("cancelled fetch was retried: %d calls", got)
	}
}

func TestBreakerShortCircuits(t *testing.T) {
	srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	cfg := testConfig(srv.URL)
	cfg.BreakerThreshold = 2
	cfg.BreakerCooldown = time.Minute
	m := NewMetrics(prometheus.NewRegistry())
	c := NewClient(cfg, nil, m)

	for i := 0; i < 2; i++ {
		if _, ok := c.Fetch(context.Background(), telemetry.EndpointRovers); ok {
			t.Fatalf("expected absent")
		}
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 4 attempts before tripping, got %d", got)
	}
	_, err := c.Get(context.Background(), telemetry.EndpointRovers)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("open breaker still hit the server: %d calls", got)
	}
	if got := testutil.ToFloat64(m.BreakerState.WithLabelValues(breakerName)); got != 2 {
		t.Fatalf("breaker gauge = %v, want 2 (open)", got)
	}
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	cfg := testConfig(srv.URL)
	cfg.BreakerThreshold = 2
	cfg.BreakerCooldown = 50 * time.Millisecond
	m := NewMetrics(prometheus.NewRegistry())
	c := NewClient(cfg, nil, m)

	for i := 0; i < 2; i++ {
		c.Fetch(context.Background(), telemetry.EndpointStatus)
	}
	failing.Store(false)
	if _, err := c.Get(context.Background(), telemetry.EndpointStatus); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker right after tripping, got %v", err)
	}
	before := calls.Load()

	time.Sleep(80 * time.Millisecond)

	// A whole parallel cycle must get through the half-open trial.
	results := make(chan bool, len(telemetry.Categories))
	for _, cat := range telemetry.Categories {
		go func() {
			_, ok := c.Fetch(context.Background(), cat.Endpoint())
			results <- ok
		}()
	}
	for range telemetry.Categories {
		if ok := <-results; !ok {
			t.Fatalf("fetch after cooldown was absent although the API serves 200")
		}
	}
	if got := calls.Load() - before; got != int32(len(telemetry.Categories)) {
		t.Fatalf("expected %d requests after cooldown, got %d", len(telemetry.Categories), got)
	}
	if got := testutil.ToFloat64(m.BreakerState.WithLabelValues(breakerName)); got != 0 {
		t.Fatalf("breaker gauge = %v, want 0 (closed)", got)
	}
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	cfg := testConfig(srv.URL)
	cfg.BreakerThreshold = 1
	c := NewClient(cfg, nil, nil)

	for i := 0; i < 3; i++ {
		if _, err := c.Get(context.Background(), telemetry.EndpointMissions); !errors.Is(err, ErrNotFound) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i, err)
		}
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected every 404 to reach the server, got %d", got)
	}
}

func TestRateLimitSpacesRequests(t *testing.T) {
	srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	cfg := testConfig(srv.URL)
	cfg.RateLimit = 20
	cfg.RateBurst = 1
	c := NewClient(cfg, nil, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, ok := c.Fetch(context.Background(), telemetry.EndpointStatus); !ok {
			t.Fatalf("fetch %d failed", i)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("3 requests at 20/s finished in %s", elapsed)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := map[telemetry.Endpoint]string{
		telemetry.EndpointTelemetry:            "/telemetry/latest",
		telemetry.RoverEndpoint("R1"):          "/rovers/{id}",
		telemetry.MissionEndpoint("M-9"):       "/missions/{id}",
		telemetry.RoverTelemetryEndpoint("R2"): "/telemetry/{id}",
	}
	for ep, want := range tests {
		if got := endpointLabel(ep); got != want {
			t.Errorf("endpointLabel(%s) = %s, want %s", ep, got, want)
		}
	}
}

func TestBaseURLTrimmed(t *testing.T) {
	c := NewClient(testConfig("http://localhost:8080/api/"), nil, nil)
	if strings.HasSuffix(c.BaseURL(), "/") {
		t.Fatalf("base url not trimmed: %s", c.BaseURL())
	}
}

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProbeSucceedsAfterRetries(t *testing.T) {
	srv, calls := countingServer(t, func(n int32, w http.ResponseWriter, _ *http.Request) {
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"system": {}}`))
	})
	c := NewClient(testConfig(srv.URL), nil, nil)

	var retries []uint
	err := c.Probe(context.Background(), func(attempt, total uint, _ error) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		retries = append(retries, attempt)
	})
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 probe attempts, got %d", calls.Load())
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Fatalf("unexpected retry callbacks: %v", retries)
	}
}

func TestProbeExhaustion(t *testing.T) {
	srv, calls := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := NewClient(testConfig(srv.URL+"/api"), nil, nil)

	var retries []uint
	err := c.Probe(context.Background(), func(attempt, _ uint, _ error) {
		retries = append(retries, attempt)
	})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if !strings.Contains(err.Error(), srv.URL+"/api") {
		t.Fatalf("error does not name the base URL: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 probe attempts, got %d", calls.Load())
	}
	if len(retries) != 2 || retries[1] != 2 {
		t.Fatalf("retry callbacks = %v, want [1 2] with none after the last attempt", retries)
	}
}

func TestProbeSkipsCertificateValidation(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil, nil)
	if err := c.Probe(context.Background(), nil); err != nil {
		t.Fatalf("insecure probe failed: %v", err)
	}

	cfg := testConfig(srv.URL)
	cfg.InsecureProbe = false
	cfg.ProbeAttempts = 1
	strict := NewClient(cfg, nil, nil)
	if err := strict.Probe(context.Background(), nil); err == nil {
		t.Fatalf("expected certificate error with validation enabled")
	}
}

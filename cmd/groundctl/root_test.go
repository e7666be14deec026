package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"groundctl/internal/api"
	"groundctl/internal/view"
)

const fastConfig = `api:
  request_timeout: 500ms
  retry_delay: 1ms
  probe_attempts: 2
  probe_delay: 1ms
live:
  continuous_interval: 20ms
`

func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/system/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"system":{"timestamp":1700000000,"rovers":{"total":1,"active":1},"missions":{"total":1,"in_progress":1,"completed":0},"telemetry":{"sessions":1,"active":1}}}`))
	})
	mux.HandleFunc("/api/rovers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rovers":[{"id":"R1","status":"active","battery":45,"progress":60,"mission_id":"M1"}]}`))
	})
	mux.HandleFunc("/api/rovers/R1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rover":{"id":"R1","status":"active","battery":45,"progress":60,"current_mission":"M1","current_task":"scan","last_sequence":7,"last_update_ago":2,"address":"10.0.0.9:7000"}}`))
	})
	mux.HandleFunc("/api/missions", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"missions":[]}`))
	})
	mux.HandleFunc("/api/telemetry/R1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"telemetry":{"rover_id":"R1","position":{"x":3,"y":4},"battery":45,"temperature":22.5,"signal_strength":80,"state":"in_mission"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "groundctl.yaml")
	if err := os.WriteFile(path, []byte(fastConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-color", "--config", writeConfig(t)))
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestShowRovers(t *testing.T) {
	srv := apiServer(t)
	out, _, err := run(t, "show", "rovers", "--base-url", srv.URL+"/api")
	if err != nil {
		t.Fatalf("show rovers: %v", err)
	}
	for _, want := range []string{"CONNECTED ROVERS (1)", "R1", "45%", "60%", "M1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShowAll(t *testing.T) {
	srv := apiServer(t)
	out, _, err := run(t, "show", "all", "--base-url", srv.URL+"/api")
	if err != nil {
		t.Fatalf("show all: %v", err)
	}
	for _, want := range []string{"SYSTEM STATUS", "1/1 active", view.NoticeNoMissions, view.NoticeWaitingTelemetry} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, view.AwaitingBanner) {
		t.Errorf("awaiting banner shown although data was available")
	}
}

func TestShowUnknownCategory(t *testing.T) {
	if _, _, err := run(t, "show", "drones"); err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Fatalf("expected unknown category error, got %v", err)
	}
}

func TestRoverDetailCommand(t *testing.T) {
	srv := apiServer(t)
	out, _, err := run(t, "rover", "R1", "--base-url", srv.URL+"/api")
	if err != nil {
		t.Fatalf("rover: %v", err)
	}
	if !strings.Contains(out, "ROVER R1") || !strings.Contains(out, "10.0.0.9:7000") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, _, err := run(t, "rover", "R9", "--base-url", srv.URL+"/api"); err == nil || !strings.Contains(err.Error(), `rover "R9" not found`) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestTrackCount(t *testing.T) {
	srv := apiServer(t)
	out, _, err := run(t, "track", "R1", "--count", "2", "--interval", "1ms", "--base-url", srv.URL+"/api")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if got := strings.Count(out, "TELEMETRY R1"); got != 2 {
		t.Fatalf("expected 2 samples, got %d:\n%s", got, out)
	}
}

func TestLiveBounded(t *testing.T) {
	srv := apiServer(t)
	out, stderr, err := run(t, "live", "--duration", "30ms", "--interval", "10ms", "--base-url", srv.URL+"/api")
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if strings.Contains(stderr, "Connecting") {
		t.Errorf("live mode should not wait for the API:\n%s", stderr)
	}
	if !strings.Contains(out, "Live mode: 0/0s") {
		t.Errorf("progress line missing:\n%s", out)
	}
}

func TestMenuStartupCheckNamesBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	base := srv.URL + "/api"

	_, stderr, err := run(t, "--base-url", base)
	if !errors.Is(err, api.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if !strings.Contains(err.Error(), base) {
		t.Fatalf("error does not name %s: %v", base, err)
	}
	if !strings.Contains(stderr, "Attempt 1/2") {
		t.Errorf("retry progress missing:\n%s", stderr)
	}
	if strings.Contains(stderr, "Attempt 2/2") {
		t.Errorf("retry announced after the last attempt:\n%s", stderr)
	}
}

func TestRootLiveSkipsStartupCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/system/status", http.NotFound)
	mux.HandleFunc("/api/rovers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rovers":[{"id":"R1","status":"active","battery":45,"progress":60,"mission_id":null}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	out, _, err := runContext(t, ctx, "--live", "--base-url", srv.URL+"/api")
	if err != nil {
		t.Fatalf("--live: %v", err)
	}
	for _, want := range []string{"Continuous monitoring", "CONNECTED ROVERS (1)", "R1", view.EndedNotice} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLiveRejectsNonPositiveInterval(t *testing.T) {
	_, _, err := run(t, "live", "--duration", "0", "--interval", "0", "--base-url", "http://127.0.0.1:1/api")
	if err == nil || !strings.Contains(err.Error(), "--interval must be positive") {
		t.Fatalf("expected interval error, got %v", err)
	}
}

func TestTrackRejectsListID(t *testing.T) {
	for _, id := range []string{"latest", " "} {
		_, _, err := run(t, "track", id, "--count", "1", "--base-url", "http://127.0.0.1:1/api")
		if err == nil || !strings.Contains(err.Error(), "invalid rover id") {
			t.Errorf("track %q: expected invalid rover id, got %v", id, err)
		}
	}
	_, _, err := run(t, "track", "R1", "--interval", "0", "--base-url", "http://127.0.0.1:1/api")
	if err == nil || !strings.Contains(err.Error(), "--interval must be positive") {
		t.Fatalf("expected interval error, got %v", err)
	}
}

func TestInvalidBaseURLFlag(t *testing.T) {
	if _, _, err := run(t, "show", "status", "--base-url", "ftp://nowhere"); err == nil {
		t.Fatalf("expected validation error for ftp base URL")
	}
}

func TestDashboardToStdout(t *testing.T) {
	out, _, err := run(t, "dashboard", "--out", "-", "--datasource-uid", "prom-1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !strings.Contains(out, `"prom-1"`) || !strings.Contains(out, "groundctl_api_requests_total") {
		t.Fatalf("unexpected dashboard:\n%s", out)
	}
}

// Package admin serves the optional metrics and inspection listener.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"groundctl/internal/view"
)

// Snapshotter exposes the last completed refresh cycle.
type Snapshotter interface {
	Last() (view.Frame, bool)
}

// Server serves /metrics, /last-cycle, /healthz and a small HTML page.
type Server struct {
	last     Snapshotter
	gatherer prometheus.Gatherer
	baseURL  string
	logger   *slog.Logger
	tpl      *template.Template
}

//go:embed templates/index.html
var content embed.FS

// NewServer creates the admin server.
func NewServer(last Snapshotter, g prometheus.Gatherer, baseURL string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{
		last:     last,
		gatherer: g,
		baseURL:  baseURL,
		logger:   logger.With("component", "admin"),
		tpl:      tpl,
	}
}

// Handler returns the admin routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /last-cycle", s.handleLastCycle)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("admin listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	frame, ok := s.last.Last()
	data := struct {
		BaseURL string
		Ready   bool
		Frame   view.Frame
	}{s.baseURL, ok, frame}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.logger.Warn("render index", "err", err)
	}
}

func (s *Server) handleLastCycle(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	frame, ok := s.last.Last()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no cycle completed yet"})
		return
	}
	_ = json.NewEncoder(w).Encode(frame)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

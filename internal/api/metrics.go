package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"groundctl/internal/telemetry"
)

// Outcome labels.
const (
	outcomeOK        = "ok"
	outcomeNotFound  = "not_found"
	outcomeTimeout   = "timeout"
	outcomeConn      = "connection"
	outcomeStatus    = "status"
	outcomeMalformed = "malformed"
	outcomeCanceled  = "canceled"
)

// Metrics holds the fetcher's Prometheus collectors.
type Metrics struct {
	// Requests counts individual HTTP attempts by endpoint and outcome.
	Requests *prometheus.CounterVec

	// Duration observes attempt latency.
	Duration *prometheus.HistogramVec

	// Absent counts fetches that ended without usable data.
	Absent *prometheus.CounterVec

	// BreakerState is 0 when closed, 1 when half-open and 2 when open.
	BreakerState *prometheus.GaugeVec
}

// NewMetrics registers the collectors on reg. A nil reg uses a private
// registry that is never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "groundctl_api_requests_total",
			Help: "HTTP attempts against the observation API.",
		}, []string{"endpoint", "outcome"}),

		Duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groundctl_api_request_duration_seconds",
			Help:    "Latency of HTTP attempts against the observation API.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"endpoint"}),

		Absent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "groundctl_api_absent_total",
			Help: "Fetches that produced no usable data.",
		}, []string{"endpoint"}),

		BreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "groundctl_api_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"breaker"}),
	}
}

func (m *Metrics) observe(ep telemetry.Endpoint, err error, took time.Duration) {
	label := endpointLabel(ep)
	m.Requests.WithLabelValues(label, outcomeOf(err)).Inc()
	m.Duration.WithLabelValues(label).Observe(took.Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrTimeout):
		return outcomeTimeout
	case errors.Is(err, ErrUnexpectedStatus):
		return outcomeStatus
	case errors.Is(err, ErrMalformedPayload):
		return outcomeMalformed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	}
	return outcomeConn
}

// endpointLabel keeps per-resource paths from exploding label cardinality.
func endpointLabel(ep telemetry.Endpoint) string {
	switch ep {
	case telemetry.EndpointStatus, telemetry.EndpointRovers, telemetry.EndpointMissions, telemetry.EndpointTelemetry:
		return string(ep)
	}
	head, _, _ := strings.Cut(strings.TrimPrefix(string(ep), "/"), "/")
	return "/" + head + "/{id}"
}

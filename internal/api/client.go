// Package api fetches dashboard data from the observation API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"groundctl/internal/config"
	"groundctl/internal/logging"
	"groundctl/internal/telemetry"
)

const (
	breakerName  = "observation-api"
	maxBodyBytes = 4 << 20
)

// Fetcher returns the JSON body of an endpoint, or false when no usable
// data could be obtained.
type Fetcher interface {
	Fetch(ctx context.Context, ep telemetry.Endpoint) (json.RawMessage, bool)
}

// Client talks to the observation API.
type Client struct {
	baseURL string
	cfg     config.APIConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	metrics *Metrics
	logger  *slog.Logger
}

// NewClient builds a client for cfg. A nil logger falls back to
// slog.Default() and nil metrics to an unexported registry.
func NewClient(cfg config.APIConfig, logger *slog.Logger, metrics *Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
		http: &http.Client{
			Timeout:       cfg.RequestTimeout,
			CheckRedirect: noRedirect,
		},
		metrics: metrics,
		logger:  logger.With("component", "api"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)
	if cfg.BreakerThreshold > 0 {
		threshold := cfg.BreakerThreshold
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        breakerName,
			// Half-open admits one full cycle so a recovered API is seen at once.
			MaxRequests: uint32(len(telemetry.Categories)),
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// A 404 is a healthy answer and a cancelled fetch says nothing about the server.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) ||
					errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			},
		})
	}
	return c
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch implements Fetcher. Every failure, including 404, collapses to absent.
func (c *Client) Fetch(ctx context.Context, ep telemetry.Endpoint) (json.RawMessage, bool) {
	body, err := c.Get(ctx, ep)
	if err != nil {
		c.metrics.Absent.WithLabelValues(endpointLabel(ep)).Inc()
		if !errors.Is(err, ErrNotFound) && ctx.Err() == nil {
			logging.FromContext(ctx).Warn("fetch failed", "endpoint", string(ep), "err", err)
		}
		return nil, false
	}
	return body, true
}

// Get fetches ep with the retry policy and returns the classified error of
// the last attempt.
func (c *Client) Get(ctx context.Context, ep telemetry.Endpoint) (json.RawMessage, error) {
	if c.breaker == nil {
		return c.getWithRetry(ctx, ep)
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.getWithRetry(ctx, ep)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (c *Client) getWithRetry(ctx context.Context, ep telemetry.Endpoint) (json.RawMessage, error) {
	log := logging.FromContext(ctx)
	var body json.RawMessage
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("retrying fetch", "endpoint", string(ep), "attempt", n+1, "err", err)
		}),
	)
	err := r.Do(func() error {
		var err error
		body, err = c.do(ctx, ep)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return body, nil
}

// do performs a single attempt.
func (c *Client) do(ctx context.Context, ep telemetry.Endpoint) (body json.RawMessage, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}
	start := time.Now()
	defer func() { c.metrics.observe(ep, err, time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+string(ep), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	req.Header.Set("Accept", "application/json")
	if id := RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if !json.Valid(data) {
		return nil, ErrMalformedPayload
	}
	return json.RawMessage(data), nil
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx whose requests carry id in X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

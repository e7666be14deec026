package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/avast/retry-go/v5"

	"groundctl/internal/telemetry"
)

// Probe checks that the API answers the status endpoint with 200. It tries
// up to cfg.ProbeAttempts times, pausing cfg.ProbeDelay in between, and
// calls onRetry before each repeat. Certificate validation is skipped when
// cfg.InsecureProbe is set.
func (c *Client) Probe(ctx context.Context, onRetry func(attempt, total uint, err error)) error {
	hc := &http.Client{
		Timeout:       c.cfg.RequestTimeout,
		CheckRedirect: noRedirect,
	}
	if c.cfg.InsecureProbe {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // connectivity probe only
		hc.Transport = tr
	}

	total := c.cfg.ProbeAttempts
	if total == 0 {
		total = 1
	}
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(total),
		retry.Delay(c.cfg.ProbeDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("probe attempt failed", "attempt", n+1, "of", total, "err", err)
			// Also invoked after the last attempt, when no retry follows.
			if onRetry != nil && n+1 < total {
				onRetry(n+1, total, err)
			}
		}),
	)
	err := r.Do(func() error {
		return c.probeOnce(ctx, hc)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w at %s: %v", ErrUnreachable, c.baseURL, err)
	}
	return nil
}

func (c *Client) probeOnce(ctx context.Context, hc *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+string(telemetry.EndpointStatus), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		// Only a 200 proves the API is serving; a 404 here is still retried.
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrTimeout          = errors.New("request timed out")
	ErrConnection       = errors.New("connection failed")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNotFound         = errors.New("not found")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrCircuitOpen      = errors.New("api circuit open")
	ErrUnreachable      = errors.New("cannot reach observation API")
)

// StatusError carries an HTTP status other than 200 or 404.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Is makes StatusError match ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// classify maps a transport error onto the fetch taxonomy. Cancellation of
// the caller's context is returned unchanged so that it is never retried.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// retryable reports whether a failed attempt may be repeated.
func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

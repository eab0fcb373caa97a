package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingPrivateKey = errors.New("private key not configured")
	ErrInvalidStrategy   = errors.New("invalid strategy")
	ErrUnknownMarket     = errors.New("unknown prediction market")
	ErrTxReverted        = errors.New("transaction reverted")
)

// TimeoutError is returned when a suspend point (read, tx confirmation)
// exceeds its deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.After)
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) keep working.
func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// AsTimeout converts a deadline error into a *TimeoutError for op. Other
// errors are returned unchanged.
func AsTimeout(err error, op string, after time.Duration) error {
	if err == nil {
		return nil
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, After: after}
	}
	return err
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutAdapter bounds every call to the wrapped adapter with a deadline.
// The call runs on the caller's goroutine and its outcome is always the one
// returned: a call cancelled by the deadline yields ErrTimeout and has not
// committed, and a call that committed reports success even if it ran late.
type TimeoutAdapter struct {
	next    Adapter
	timeout time.Duration
}

// WithTimeout wraps next so no call runs longer than d. A non-positive d
// returns next unchanged.
func WithTimeout(next Adapter, d time.Duration) Adapter {
	if d <= 0 {
		return next
	}
	return &TimeoutAdapter{next: next, timeout: d}
}

func (a *TimeoutAdapter) wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %q after %v: %w", op, key, a.timeout, ErrTimeout)
	}
	return err
}

func (a *TimeoutAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	value, err := a.next.Get(ctx, key)
	if err != nil {
		return nil, a.wrap("get", key, err)
	}
	return value, nil
}

func (a *TimeoutAdapter) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.wrap("set", key, a.next.Set(ctx, key, value))
}

func (a *TimeoutAdapter) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.wrap("remove", key, a.next.Remove(ctx, key))
}

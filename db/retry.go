package db

import (
	"errors"
	"strings"
	"time"
)

// ErrStoreUnavailable is returned once a transient store error survives
// every retry attempt.
var ErrStoreUnavailable = errors.New("store unavailable")

// RetryPolicy retries write operations that fail with a transient
// locked/busy error. Reads are side-effect free and may be retried with
// the same policy. Not-found and validation errors are never retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64

	// sleep is overridable in tests.
	sleep func(time.Duration)
}

// DefaultRetryPolicy matches the storage layer busy-timeout behavior:
// up to 5 attempts with 50ms base delay doubling each attempt.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   50 * time.Millisecond,
		Factor:      2.0,
	}
}

// Do runs fn, retrying transient errors with exponential backoff. The
// final transient error is wrapped in ErrStoreUnavailable; permanent
// errors propagate immediately.
func (p *RetryPolicy) Do(fn func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	delay := p.BaseDelay
	var err error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err = fn()

		if err == nil {
			return nil
		}

		if !IsTransient(err) {
			return err
		}

		if attempt < p.MaxAttempts-1 {
			sleep(delay)
			delay = time.Duration(float64(delay) * p.Factor)
		}
	}

	return errors.Join(ErrStoreUnavailable, err)
}

// IsTransient reports whether err is a busy/locked storage error that is
// safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"deadlock detected",
		"could not serialize access",
		"connection reset",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

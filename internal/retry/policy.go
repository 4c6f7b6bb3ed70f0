// Package retry implements the bounded exponential backoff shared by every
// upstream call (bulletin fetch and price feed).
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
)

var (
	// ErrAttemptsExhausted wraps the last error once every retry has failed.
	ErrAttemptsExhausted = errors.New("retry attempts exhausted")

	// ErrRateLimited marks upstream throttling. Typed API errors match it via errors.Is.
	ErrRateLimited = errors.New("rate limited")
)

// Policy retries a call up to MaxRetries times after the initial attempt.
// The delay before retry n (1-based) is Backoff(n).
type Policy struct {
	MaxRetries int
	Backoff    func(attempt int) time.Duration
	Retriable  func(err error) bool
	Sleep      func(ctx context.Context, d time.Duration) error
}

// NewPolicy creates a policy with factor^attempt second delays.
func NewPolicy(maxRetries, factor int, retriable func(error) bool) *Policy {
	return &Policy{
		MaxRetries: maxRetries,
		Backoff:    Exponential(factor, time.Second),
		Retriable:  retriable,
		Sleep:      SleepContext,
	}
}

// Exponential returns unit * factor^attempt.
func Exponential(factor int, unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(math.Pow(float64(factor), float64(attempt))) * unit
	}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn, retrying retriable errors with backoff. Non-retriable errors are
// returned as-is without delay.
func (p *Policy) Do(ctx context.Context, logger arbor.ILogger, operation string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = arbor.NewNoOpLogger()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.Backoff(attempt)
			logger.Warn().
				Str("operation", operation).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Err(lastErr).
				Msg("Retrying after backoff")

			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s: %w", operation, err)
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if p.Retriable == nil || !p.Retriable(lastErr) {
			logger.Debug().
				Str("operation", operation).
				Int("attempt", attempt+1).
				Err(lastErr).
				Msg("Non-retryable error, failing immediately")
			return lastErr
		}
	}

	logger.Warn().
		Str("operation", operation).
		Int("max_retries", p.MaxRetries).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return fmt.Errorf("%s: %w: %w", operation, ErrAttemptsExhausted, lastErr)
}

// IsRateLimited reports throttling by sentinel or by a "429" in the message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return strings.Contains(err.Error(), "429")
}

// IsConnectionLost reports transient transport failures.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection to remote host was lost") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused")
}

// RateLimitOrConnection is the price feed predicate.
func RateLimitOrConnection(err error) bool {
	return IsRateLimited(err) || IsConnectionLost(err)
}

// AnyFailure retries every error except caller cancellation.
func AnyFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

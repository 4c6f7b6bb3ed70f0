package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type recordedSleep struct {
	delays []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestPolicy(retriable func(error) bool) (*Policy, *recordedSleep) {
	rec := &recordedSleep{}
	p := NewPolicy(3, 2, retriable)
	p.Sleep = rec.sleep
	return p, rec
}

func TestPolicy_RateLimitBackoff(t *testing.T) {
	p, rec := newTestPolicy(RateLimitOrConnection)

	calls := 0
	err := p.Do(context.Background(), arbor.NewNoOpLogger(), "daily bars", func(ctx context.Context) error {
		calls++
		return errors.New("HTTP 429: too many requests")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, rec.delays)
}

func TestPolicy_NonRetriableFailsImmediately(t *testing.T) {
	p, rec := newTestPolicy(RateLimitOrConnection)

	want := errors.New("symbol not found")
	calls := 0
	err := p.Do(context.Background(), arbor.NewNoOpLogger(), "daily bars", func(ctx context.Context) error {
		calls++
		return want
	})

	assert.ErrorIs(t, err, want)
	assert.NotErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestPolicy_RecoversAfterTransientFailure(t *testing.T) {
	p, rec := newTestPolicy(RateLimitOrConnection)

	calls := 0
	err := p.Do(context.Background(), arbor.NewNoOpLogger(), "daily bars", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("fetch: %w", ErrRateLimited)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestPolicy_StopsOnCancelledSleep(t *testing.T) {
	p := NewPolicy(3, 2, AnyFailure)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.Do(ctx, nil, "bulletin", func(ctx context.Context) error {
		calls++
		return errors.New("status 503")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExponential(t *testing.T) {
	backoff := Exponential(2, time.Second)
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, 8*time.Second, backoff(3))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRateLimit bool
		wantConnLost  bool
	}{
		{"nil", nil, false, false},
		{"sentinel", fmt.Errorf("eodhd: %w", ErrRateLimited), true, false},
		{"message 429", errors.New("status 429"), true, false},
		{"remote host lost", errors.New("Connection to remote host was lost."), false, true},
		{"eof", fmt.Errorf("read: %w", io.EOF), false, true},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, false, true},
		{"other", errors.New("invalid symbol"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRateLimit, IsRateLimited(tt.err))
			assert.Equal(t, tt.wantConnLost, IsConnectionLost(tt.err))
			assert.Equal(t, tt.wantRateLimit || tt.wantConnLost, RateLimitOrConnection(tt.err))
		})
	}

	assert.False(t, AnyFailure(context.Canceled))
	assert.True(t, AnyFailure(errors.New("status 500")))
}

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestService_StartValidation(t *testing.T) {
	s := NewService(func(ctx context.Context) error { return nil }, arbor.NewNoOpLogger())

	assert.Error(t, s.Start(""))
	assert.Error(t, s.Start("not a cron"))
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start("0 18 * * 1-5"))
	defer s.Stop()

	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start("0 18 * * 1-5"))

	status := s.Status()
	assert.Equal(t, "0 18 * * 1-5", status.Schedule)
	require.NotNil(t, status.NextRun)
	assert.Equal(t, 18, status.NextRun.Hour())
}

func TestService_RestartKeepsSingleEntry(t *testing.T) {
	s := NewService(func(ctx context.Context) error { return nil }, arbor.NewNoOpLogger())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Start("0 18 * * 1-5"))
		assert.Len(t, s.cron.Entries(), 1)
		require.NoError(t, s.Stop())
		assert.Empty(t, s.cron.Entries())
	}

	require.NoError(t, s.Start("30 9 * * 1-5"))
	defer s.Stop()
	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 9, s.Status().NextRun.Hour())
}

func TestService_TriggerNowRecordsOutcome(t *testing.T) {
	var calls int32
	done := make(chan struct{}, 1)
	s := NewService(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		done <- struct{}{}
		return errors.New("feed unavailable")
	}, arbor.NewNoOpLogger())

	assert.Error(t, s.TriggerNow())

	require.NoError(t, s.Start("0 0 1 1 *"))
	defer s.Stop()

	require.NoError(t, s.TriggerNow())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run not triggered")
	}

	assert.Eventually(t, func() bool {
		st := s.Status()
		return st.LastRun != nil && !st.IsProcessing
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "feed unavailable", s.Status().LastError)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestService_SkipsOverlappingRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var calls int32
	s := NewService(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return nil
	}, arbor.NewNoOpLogger())

	require.NoError(t, s.Start("0 0 1 1 *"))
	defer s.Stop()

	require.NoError(t, s.TriggerNow())
	<-started

	// the second run sees the first in progress and returns
	s.runScheduledTask()
	close(release)

	assert.Eventually(t, func() bool { return !s.Status().IsProcessing }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/screening-watch/internal/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelError, &bytes.Buffer{})
}

func TestTrigger(t *testing.T) {
	var calls int32
	s := New(RunnerFunc(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}), time.Minute, quietLogger())
	defer s.Stop()

	require.NoError(t, s.Trigger())
	require.NoError(t, s.Trigger())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTrigger_ReturnsRunError(t *testing.T) {
	want := errors.New("fetch failed")
	s := New(RunnerFunc(func(ctx context.Context) error {
		return want
	}), time.Minute, quietLogger())
	defer s.Stop()

	assert.ErrorIs(t, s.Trigger(), want)
}

func TestTrigger_CollapsesOverlappingRuns(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	s := New(RunnerFunc(func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return nil
	}), time.Minute, quietLogger())
	defer s.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Trigger())
	}()

	<-started

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Trigger())
		}()
	}

	// Give the extra triggers time to join the in-flight run
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStart_RunImmediately(t *testing.T) {
	var calls int32
	s := New(RunnerFunc(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}), time.Hour, quietLogger())

	require.NoError(t, s.Start(true))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStart_WithoutImmediateRun(t *testing.T) {
	var calls int32
	s := New(RunnerFunc(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}), time.Hour, quietLogger())

	require.NoError(t, s.Start(false))
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestStart_Twice(t *testing.T) {
	s := New(RunnerFunc(func(ctx context.Context) error { return nil }), time.Hour, quietLogger())
	defer s.Stop()

	require.NoError(t, s.Start(false))
	assert.ErrorIs(t, s.Start(false), ErrStarted)
}

func TestStart_Ticks(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cron tick")
	}

	var calls int32
	s := New(RunnerFunc(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}), time.Second, quietLogger())

	require.NoError(t, s.Start(false))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestNextRun(t *testing.T) {
	s := New(RunnerFunc(func(ctx context.Context) error { return nil }), time.Hour, quietLogger())

	assert.True(t, s.NextRun().IsZero(), "NextRun before Start should be zero")

	before := time.Now()
	require.NoError(t, s.Start(false))

	// cron computes the first Next asynchronously once its loop starts
	assert.Eventually(t, func() bool {
		return !s.NextRun().IsZero()
	}, time.Second, 10*time.Millisecond)

	next := s.NextRun()
	assert.True(t, next.After(before), "NextRun %s should be after %s", next, before)
	assert.True(t, next.Before(before.Add(time.Hour+time.Second)), "NextRun %s should be within one interval", next)

	s.Stop()
	assert.True(t, s.NextRun().IsZero(), "NextRun after Stop should be zero")
}

func TestStop_CancelsInFlightRun(t *testing.T) {
	started := make(chan struct{})
	var sawCancel int32

	s := New(RunnerFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		atomic.StoreInt32(&sawCancel, 1)
		return ctx.Err()
	}), time.Hour, quietLogger())

	require.NoError(t, s.Start(true))
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&sawCancel))

	// Runs after Stop fail fast
	assert.ErrorIs(t, s.Trigger(), context.Canceled)

	// Stop is idempotent
	s.Stop()
}

func TestStart_RecoversPanics(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cron tick")
	}

	var calls int32
	s := New(RunnerFunc(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		panic("boom")
	}), time.Second, quietLogger())

	require.NoError(t, s.Start(false))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, 4*time.Second, 50*time.Millisecond, "scheduler should keep ticking after a panic")
	s.Stop()
}

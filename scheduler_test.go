package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedulerRunOnce(t *testing.T) {
	calls := 0
	s := NewIntervalScheduler(10*time.Millisecond, true, log.New())
	s.RegisterCallback(func() error {
		calls++
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, calls, "run-once fires the callback exactly once")
	assert.True(t, s.Stopped(), "run-once scheduler is stopped after Start returns")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, calls, "no further calls after the single run")
}

func TestIntervalSchedulerPeriodic(t *testing.T) {
	fired := make(chan struct{}, 16)
	s := NewIntervalScheduler(10*time.Millisecond, false, log.New())
	s.RegisterCallback(func() error {
		fired <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	for i := 0; i < 4; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for run %d", i+1)
		}
	}

	require.NoError(t, s.Stop())
	require.NoError(t, s.WaitForShutdown(ctx))

	// Drain anything in flight, then confirm silence.
	for len(fired) > 0 {
		<-fired
	}
	select {
	case <-fired:
		t.Fatal("callback fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestIntervalSchedulerRunOnceReturnsCallbackError(t *testing.T) {
	boom := errors.New("session blew up")
	s := NewIntervalScheduler(10*time.Millisecond, true, log.New())
	s.RegisterCallback(func() error { return boom })

	err := s.Start(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestIntervalSchedulerRequiresCallback(t *testing.T) {
	s := NewIntervalScheduler(10*time.Millisecond, true, log.New())

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callback must be registered")
}

func TestIntervalSchedulerStopIsIdempotent(t *testing.T) {
	s := NewIntervalScheduler(10*time.Millisecond, true, log.New())
	s.RegisterCallback(func() error { return nil })

	assert.NoError(t, s.Stop(), "stop before start is a no-op")
	assert.NoError(t, s.Stop(), "repeated stop is a no-op")
}

func TestIntervalSchedulerContextCancelStopsLoop(t *testing.T) {
	s := NewIntervalScheduler(5*time.Millisecond, false, log.New())
	s.RegisterCallback(func() error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, s.WaitForShutdown(waitCtx))
	assert.True(t, s.Stopped())
}

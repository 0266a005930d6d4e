package unit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Scheduler decides when a session runs. The app registers the session
// callback and the scheduler drives it.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RegisterCallback(func() error)
	WaitForShutdown(ctx context.Context) error
	Stopped() bool
}

// IntervalScheduler fires the callback once immediately and, unless runOnce
// is set, again on every interval tick until stopped. The immediate run
// happens on the caller's goroutine so a run-once start returns the
// callback's error directly.
type IntervalScheduler struct {
	interval time.Duration
	runOnce  bool
	logger   log.Logger
	callback func() error

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewIntervalScheduler(interval time.Duration, runOnce bool, logger log.Logger) *IntervalScheduler {
	return &IntervalScheduler{
		interval: interval,
		runOnce:  runOnce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (s *IntervalScheduler) RegisterCallback(callback func() error) {
	s.callback = callback
}

func (s *IntervalScheduler) Start(ctx context.Context) error {
	if s.callback == nil {
		return errors.New("callback must be registered before starting scheduler")
	}

	s.done = make(chan struct{})
	s.running.Store(true)

	if s.runOnce {
		s.logger.Info("Scheduler running a single session")
		defer s.running.Store(false)
		return s.callback()
	}

	s.logger.Info("Scheduler running sessions continuously", "interval", s.interval)
	if err := s.callback(); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

func (s *IntervalScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.running.Load() {
				return
			}
			s.logger.Info("Running scheduled session")
			if err := s.callback(); err != nil {
				s.logger.Error("Scheduled session failed", "error", err)
			}
		case <-s.done:
			return
		case <-ctx.Done():
			s.running.Store(false)
			return
		}
	}
}

// Stop is idempotent: stopping an already-stopped scheduler is a no-op.
func (s *IntervalScheduler) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.done)
	return nil
}

func (s *IntervalScheduler) Stopped() bool {
	return !s.running.Load()
}

// WaitForShutdown blocks until the tick loop has exited or ctx expires.
func (s *IntervalScheduler) WaitForShutdown(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for scheduler shutdown", "error", ctx.Err())
		return ctx.Err()
	}
}

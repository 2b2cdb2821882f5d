package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrDrainTimeout = errors.New("drain timeout")
	ErrAlreadyRun   = errors.New("runner already started")
)

const defaultDrainTimeout = 10 * time.Second

// LifecycleRunner keeps a console session alive until its context ends,
// then waits for in-flight terminal work (feedback, generation, fallback)
// within a bounded timeout before calling OnStop.
type LifecycleRunner struct {
	state    atomic.Int32
	mu       sync.Mutex
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopErr  error

	hooks   Hooks
	drainer Drainer
	timeout time.Duration
	log     *slog.Logger
}

func NewLifecycleRunner(drainer Drainer, hooks Hooks, timeout time.Duration) *LifecycleRunner {
	if timeout <= 0 {
		timeout = defaultDrainTimeout
	}
	log := hooks.Logger
	if log == nil {
		log = slog.Default()
	}
	return &LifecycleRunner{
		hooks:   hooks,
		drainer: drainer,
		timeout: timeout,
		log:     log.With(slog.String("component", "runner")),
	}
}

// Run blocks until ctx is cancelled or Stop is called, then drains.
func (r *LifecycleRunner) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateNew), int32(StateStarting)) {
		return ErrAlreadyRun
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	PrintBanner()
	if r.hooks.OnStart != nil {
		r.hooks.OnStart()
	}
	r.state.Store(int32(StateRunning))
	<-ctx.Done()
	return r.shutdown()
}

// Stop ends a running runner, or drains directly when Run was never called.
func (r *LifecycleRunner) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return r.shutdown()
}

func (r *LifecycleRunner) State() State {
	return State(r.state.Load())
}

func (r *LifecycleRunner) shutdown() error {
	r.stopOnce.Do(func() {
		r.state.Store(int32(StateDraining))
		r.stopErr = r.drain()
		if r.hooks.OnStop != nil {
			r.hooks.OnStop()
		}
		r.state.Store(int32(StateStopped))
	})
	return r.stopErr
}

func (r *LifecycleRunner) drain() error {
	if r.drainer == nil {
		return nil
	}
	started := time.Now()
	done := make(chan error, 1)
	go func() { done <- r.drainer.Drain() }()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			r.log.Warn("session_drain_failed", slog.String("error", err.Error()))
			return err
		}
		r.log.Debug("session_drained", slog.Duration("elapsed", time.Since(started)))
		return nil
	case <-timer.C:
		r.log.Warn("session_drain_timeout", slog.Duration("timeout", r.timeout))
		return ErrDrainTimeout
	}
}

// Package besteffort runs side operations whose failure is logged and then
// ignored: the caller may inspect the Result but is never forced to handle it.
package besteffort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Result describes how a best-effort operation ended.
type Result struct {
	Op       string
	Err      error
	Elapsed  time.Duration
	TimedOut bool
}

// OK reports whether the operation completed without error.
func (r Result) OK() bool { return r.Err == nil }

// Do runs fn and waits at most timeout for it (no bound other than ctx when
// timeout <= 0). On timeout fn is abandoned: its context is cancelled but Do
// does not wait for it to return. Panics in fn are recovered into Err.
func Do(ctx context.Context, log *slog.Logger, op string, timeout time.Duration, fn func(context.Context) error) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s panicked: %v", op, r)
			}
		}()
		done <- fn(runCtx)
	}()

	res := Result{Op: op}
	select {
	case err := <-done:
		res.Err = err
	case <-runCtx.Done():
		res.Err = runCtx.Err()
		res.TimedOut = errors.Is(res.Err, context.DeadlineExceeded)
	}
	res.Elapsed = time.Since(start)

	switch {
	case res.TimedOut:
		log.Warn("best_effort_timeout",
			slog.String("op", op),
			slog.Duration("timeout", timeout),
		)
	case res.Err != nil:
		log.Warn("best_effort_failed",
			slog.String("op", op),
			slog.String("error", res.Err.Error()),
			slog.Duration("elapsed", res.Elapsed),
		)
	default:
		log.Debug("best_effort_ok",
			slog.String("op", op),
			slog.Duration("elapsed", res.Elapsed),
		)
	}
	return res
}

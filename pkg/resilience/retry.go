package resilience

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RetryPolicy defines retry behavior for transient failures.
type RetryPolicy struct {
	MaxRetries  int
	Backoff     time.Duration
	IsRetryable func(error) bool
}

func NewRetryPolicy(maxRetries int, backoff time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return RetryPolicy{MaxRetries: maxRetries, Backoff: backoff, IsRetryable: Transient}
}

// Do runs fn until it succeeds, returns a non-retryable error, or retries run out.
// The wait between attempts grows linearly with the attempt number.
func (r RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	retryable := r.IsRetryable
	if retryable == nil {
		retryable = Transient
	}
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if i == r.MaxRetries || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.Backoff * time.Duration(i+1)):
		}
	}
	return err
}

// Transient reports whether err looks like a network hiccup worth retrying.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsRateLimit(err) {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unexpected eof") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "rst_stream") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "unavailable")
}

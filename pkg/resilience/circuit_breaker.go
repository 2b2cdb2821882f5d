package resilience

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RateLimitError is a generation provider refusing work for quota reasons.
// RetryAfter is set when the refusal comes from an open breaker.
type RateLimitError struct {
	Provider   string
	Message    string
	RetryAfter time.Duration
}

func (e RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "rate limit"
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter.Round(time.Second))
	}
	return msg
}

func IsRateLimit(err error) bool {
	var rl RateLimitError
	return errors.As(err, &rl)
}

var quotaMarkers = []string{"429", "resource_exhausted", "quota", "too many requests", "rate limit"}

// AsRateLimit turns quota-shaped provider errors into RateLimitError and
// returns anything else unchanged.
func AsRateLimit(provider string, err error) error {
	if err == nil || IsRateLimit(err) {
		return err
	}
	s := strings.ToLower(err.Error())
	for _, m := range quotaMarkers {
		if strings.Contains(s, m) {
			return RateLimitError{Provider: provider, Message: err.Error()}
		}
	}
	return err
}

// CircuitBreaker stops calling a provider for a cooldown after threshold
// consecutive rate limit failures. Other failures neither count nor reset.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	streak    int
	openUntil time.Time
	now       func() time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (c *CircuitBreaker) Allow() bool {
	return c.RetryAfter() == 0
}

// RetryAfter is how long the breaker stays open; zero when closed.
func (c *CircuitBreaker) RetryAfter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if left := c.openUntil.Sub(c.now()); left > 0 {
		return left
	}
	return 0
}

func (c *CircuitBreaker) OnSuccess() {
	c.mu.Lock()
	c.streak = 0
	c.openUntil = time.Time{}
	c.mu.Unlock()
}

// OnError reports whether err opened the breaker.
func (c *CircuitBreaker) OnError(err error) bool {
	if !IsRateLimit(err) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streak++
	if c.streak < c.threshold {
		return false
	}
	c.streak = 0
	c.openUntil = c.now().Add(c.cooldown)
	return true
}

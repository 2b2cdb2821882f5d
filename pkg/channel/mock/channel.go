// Package mock provides an in-memory voice channel for tests and local runs.
package mock

import (
	"context"
	"sync"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/channel"
)

// StartCall records one Start invocation.
type StartCall struct {
	Target channel.Target
	Vars   map[string]any
}

// Channel implements channel.Channel without any network dependency.
type Channel struct {
	subs channel.Subscribers

	mu         sync.Mutex
	startErr   error
	startGate  chan struct{}
	stopErr    error
	starts     []StartCall
	stops      int
	startedSig chan struct{}
}

func New() *Channel {
	return &Channel{startedSig: make(chan struct{}, 16)}
}

func (c *Channel) Name() string { return "mock" }

// FailStart makes subsequent Start calls return err.
func (c *Channel) FailStart(err error) {
	c.mu.Lock()
	c.startErr = err
	c.mu.Unlock()
}

// FailStop makes subsequent Stop calls return err.
func (c *Channel) FailStop(err error) {
	c.mu.Lock()
	c.stopErr = err
	c.mu.Unlock()
}

// BlockStart makes Start wait until the returned release function is called
// or the Start context is done.
func (c *Channel) BlockStart() (release func()) {
	gate := make(chan struct{})
	c.mu.Lock()
	c.startGate = gate
	c.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Entered signals each time Start is entered, before any configured block.
func (c *Channel) Entered() <-chan struct{} { return c.startedSig }

func (c *Channel) Start(ctx context.Context, target channel.Target, vars map[string]any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.starts = append(c.starts, StartCall{Target: target, Vars: copyVars(vars)})
	gate := c.startGate
	err := c.startErr
	c.mu.Unlock()

	select {
	case c.startedSig <- struct{}{}:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return c.stopErr
}

func (c *Channel) Subscribe(fn func(channel.Event)) func() {
	return c.subs.Add(fn)
}

// Emit delivers ev to subscribers synchronously.
func (c *Channel) Emit(ev channel.Event) {
	c.subs.Dispatch(ev)
}

// Starts returns the recorded Start calls.
func (c *Channel) Starts() []StartCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StartCall, len(c.starts))
	copy(out, c.starts)
	return out
}

// Stops returns the number of Stop calls.
func (c *Channel) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

// Subscribers reports the number of active subscriptions.
func (c *Channel) Subscribers() int { return c.subs.Len() }

func copyVars(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Package channel defines the realtime voice channel boundary: a vendor
// connection that opens a call against a workflow or assistant and reports
// lifecycle, speech and transcript events to a single typed subscriber.
package channel

import (
	"context"
	"sync"
)

// TargetKind selects what the channel connects to.
type TargetKind string

const (
	TargetWorkflow  TargetKind = "workflow"
	TargetAssistant TargetKind = "assistant"
)

// Target names the remote workflow or assistant persona for a call.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// Channel is a vendor-agnostic voice call connection.
// Implementations own their network lifecycle and deliver events to
// subscribers in arrival order.
type Channel interface {
	Name() string
	Start(ctx context.Context, target Target, vars map[string]any) error
	Stop() error
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Subscribers is a small fan-out helper shared by channel implementations.
// The zero value is ready to use.
type Subscribers struct {
	mu   sync.RWMutex
	next int
	subs []subscriber
}

type subscriber struct {
	id int
	fn func(Event)
}

// Add registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (s *Subscribers) Add(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Subscribers) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Len reports the number of active subscribers.
func (s *Subscribers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Dispatch delivers ev to every subscriber in registration order. The lock
// is not held while subscribers run.
func (s *Subscribers) Dispatch(ev Event) {
	s.mu.RLock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}

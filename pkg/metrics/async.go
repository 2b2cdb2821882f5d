package metrics

import (
	"sync"
	"sync/atomic"
)

// AsyncObserver hands events to a slower observer (log, JSONL file) on a
// single goroutine so controller transitions never wait on I/O. Events that
// do not fit in the buffer are dropped and counted.
type AsyncObserver struct {
	inner   Observer
	mu      sync.RWMutex
	closed  bool
	queue   chan MetricsEvent
	done    chan struct{}
	dropped atomic.Int64
}

func NewAsyncObserver(inner Observer, buffer int) *AsyncObserver {
	if buffer <= 0 {
		buffer = 256
	}
	a := &AsyncObserver{
		inner: OrNoop(inner),
		queue: make(chan MetricsEvent, buffer),
		done:  make(chan struct{}),
	}
	go a.deliver()
	return a
}

func (a *AsyncObserver) RecordEvent(ev MetricsEvent) {
	if a == nil {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- ev:
	default:
		a.dropped.Add(1)
	}
}

func (a *AsyncObserver) Dropped() int64 {
	return a.dropped.Load()
}

// Close rejects further events and waits until queued ones are delivered.
func (a *AsyncObserver) Close() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

// Drain closes the observer and flushes the inner one when it buffers.
func (a *AsyncObserver) Drain() error {
	a.Close()
	if f, ok := a.inner.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

func (a *AsyncObserver) deliver() {
	defer close(a.done)
	for ev := range a.queue {
		a.inner.RecordEvent(ev)
	}
}

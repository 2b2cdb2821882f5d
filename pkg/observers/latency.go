package observers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
)

// LatencyObserver reports how long each attempt spent connecting, talking and
// waiting for its outcome. It keys on the "attempt" tag.
type LatencyObserver struct {
	mu       sync.Mutex
	attempts map[string]*attemptTrace
	log      *slog.Logger
}

type attemptTrace struct {
	connecting time.Time
	active     time.Time
	finished   time.Time
}

// AttemptLatency is the summary logged when an attempt reaches its outcome.
type AttemptLatency struct {
	Attempt  string
	Connect  time.Duration
	Talk     time.Duration
	Outcome  time.Duration
	Terminal string
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		attempts: make(map[string]*attemptTrace),
		log:      log,
	}
}

func (o *LatencyObserver) RecordEvent(ev metrics.MetricsEvent) {
	attempt := ""
	if ev.Tags != nil {
		attempt = ev.Tags["attempt"]
	}
	if attempt == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	t := o.attempts[attempt]
	if t == nil {
		t = &attemptTrace{}
		o.attempts[attempt] = t
	}
	switch ev.Name {
	case metrics.EventStateChange:
		switch ev.Tags["to"] {
		case "CONNECTING":
			t.connecting = ev.Time
		case "ACTIVE":
			t.active = ev.Time
		case "FINISHED":
			if t.finished.IsZero() {
				t.finished = ev.Time
			}
		case "IDLE":
			if t.finished.IsZero() {
				// The attempt never reached a terminal outcome.
				delete(o.attempts, attempt)
			}
		}
	case metrics.EventOutcome:
		summary := summarize(attempt, t, ev)
		o.log.Info("attempt_latency",
			slog.String("attempt", summary.Attempt),
			slog.Int64("connect_ms", summary.Connect.Milliseconds()),
			slog.Int64("talk_ms", summary.Talk.Milliseconds()),
			slog.Int64("outcome_ms", summary.Outcome.Milliseconds()),
			slog.String("outcome", summary.Terminal),
		)
		delete(o.attempts, attempt)
	}
}

func summarize(attempt string, t *attemptTrace, ev metrics.MetricsEvent) AttemptLatency {
	out := AttemptLatency{Attempt: attempt, Terminal: ev.Tags["outcome"]}
	if !t.connecting.IsZero() && !t.active.IsZero() {
		out.Connect = t.active.Sub(t.connecting)
	}
	if !t.active.IsZero() && !t.finished.IsZero() {
		out.Talk = t.finished.Sub(t.active)
	}
	if !t.finished.IsZero() {
		out.Outcome = ev.Time.Sub(t.finished)
	}
	return out
}

// Pending returns the number of attempts still being tracked.
func (o *LatencyObserver) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.attempts)
}

package metrics

import "time"

// Event names emitted by the session core.
const (
	EventStateChange      = "call_state_change"
	EventCallOpenFailed   = "call_open_failed"
	EventChannelError     = "channel_error"
	EventTranscript       = "transcript_final"
	EventTerminal         = "terminal_handler"
	EventCascadeStep      = "fallback_step"
	EventCascadeExhausted = "fallback_exhausted"
	EventOutcome          = "attempt_outcome"
	EventTelemetryState   = "telemetry_state"
	EventTelemetryAlert   = "telemetry_alert"
	EventBestEffortFailed = "best_effort_failed"
	EventBreakerOpen      = "breaker_open"
	EventBreakerDenied    = "breaker_denied"
)

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

// OrNoop returns obs, or a NoopObserver when obs is nil.
func OrNoop(obs Observer) Observer {
	if obs == nil {
		return NoopObserver{}
	}
	return obs
}

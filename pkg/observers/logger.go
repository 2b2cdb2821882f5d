package observers

import (
	"context"
	"log/slog"
	"sort"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
)

// LoggerObserver mirrors session metrics into the structured log, one line
// per event named after it. Tags are attributes; fields go under "fields".
type LoggerObserver struct {
	log *slog.Logger
}

func NewLoggerObserver(log *slog.Logger) *LoggerObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LoggerObserver{log: log}
}

func (o *LoggerObserver) RecordEvent(ev metrics.MetricsEvent) {
	attrs := make([]slog.Attr, 0, len(ev.Tags)+2)
	attrs = append(attrs, slog.Time("at", ev.Time))
	if ev.Value != 0 {
		attrs = append(attrs, slog.Float64("value", ev.Value))
	}
	for _, k := range sortedKeys(ev.Tags) {
		attrs = append(attrs, slog.String(k, ev.Tags[k]))
	}
	if len(ev.Fields) > 0 {
		fields := make([]any, 0, len(ev.Fields))
		for _, k := range sortedKeys(ev.Fields) {
			fields = append(fields, slog.Any(k, ev.Fields[k]))
		}
		attrs = append(attrs, slog.Group("fields", fields...))
	}
	o.log.LogAttrs(context.Background(), levelFor(ev.Name), ev.Name, attrs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Failures of the side paths are worth surfacing above debug.
func levelFor(name string) slog.Level {
	switch name {
	case metrics.EventCascadeExhausted, metrics.EventCallOpenFailed:
		return slog.LevelWarn
	case metrics.EventCascadeStep, metrics.EventOutcome, metrics.EventBreakerOpen:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

type MultiObserver struct {
	list []metrics.Observer
}

func NewMultiObserver(list ...metrics.Observer) *MultiObserver {
	return &MultiObserver{list: list}
}

func (m *MultiObserver) RecordEvent(ev metrics.MetricsEvent) {
	for _, obs := range m.list {
		if obs != nil {
			obs.RecordEvent(ev)
		}
	}
}

// Flush flushes every member that supports it and returns the first error.
func (m *MultiObserver) Flush() error {
	var first error
	for _, obs := range m.list {
		if f, ok := obs.(metrics.Flusher); ok {
			if err := f.Flush(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
)

type jsonlRecord struct {
	Name   string            `json:"name"`
	Time   time.Time         `json:"time"`
	Value  float64           `json:"value,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
	Fields map[string]any    `json:"fields,omitempty"`
}

// JSONLObserver writes one JSON object per event, for offline analysis of
// attempts (time to connect, fallback rate, telemetry health).
type JSONLObserver struct {
	mu  sync.Mutex
	enc *json.Encoder
	out io.Writer
}

func NewJSONLObserver(w io.Writer) *JSONLObserver {
	if w == nil {
		w = io.Discard
	}
	return &JSONLObserver{enc: json.NewEncoder(w), out: w}
}

// OpenJSONLFile appends events to path, rotating it at maxSizeMB and keeping
// maxBackups old files.
func OpenJSONLFile(path string, maxSizeMB, maxBackups int) (*JSONLObserver, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("metrics dir: %w", err)
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	return NewJSONLObserver(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}), nil
}

func (o *JSONLObserver) RecordEvent(ev MetricsEvent) {
	rec := jsonlRecord{Name: ev.Name, Time: ev.Time, Value: ev.Value, Tags: ev.Tags, Fields: sanitize(ev.Fields)}
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = o.enc.Encode(rec)
}

// Flush syncs the destination when it is a plain file.
func (o *JSONLObserver) Flush() error {
	if f, ok := o.out.(*os.File); ok {
		return f.Sync()
	}
	return nil
}

func (o *JSONLObserver) Close() error {
	if c, ok := o.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// sanitize renders error values as text; encoding/json would emit {}.
func sanitize(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		out[k] = v
	}
	return out
}

// Package redact masks personal details in candidate utterances before they
// reach logs. It is off unless SetEnabled(true) is called.
package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var patterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`(?i)\bhttps?://[^\s]+`), "[REDACTED_URL]"},
	{regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`), "[REDACTED_PHONE]"},
}

const maxPreview = 120

func SetEnabled(v bool) {
	enabled.Store(v)
}

func Enabled() bool {
	return enabled.Load()
}

// Text masks emails, links and phone numbers, plus any of names (the
// candidate's own name, typically) matched case-insensitively as whole words.
func Text(in string, names ...string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := in
	for _, p := range patterns {
		out = p.re.ReplaceAllString(out, p.label)
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if len(n) < 2 {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`)
		out = re.ReplaceAllString(out, "[REDACTED_NAME]")
	}
	return out
}

// Preview is Text capped at a log-friendly length.
func Preview(in string, names ...string) string {
	out := []rune(Text(strings.TrimSpace(in), names...))
	if len(out) <= maxPreview {
		return string(out)
	}
	return string(out[:maxPreview]) + "..."
}

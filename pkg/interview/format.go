package interview

import "strings"

// FormatConversation renders entries as "role: content" lines.
func FormatConversation(entries []TranscriptEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, string(e.Role)+": "+e.Content)
	}
	return strings.Join(lines, "\n")
}

// FormatQuestions renders a dash-prefixed, newline-joined question list.
func FormatQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		lines = append(lines, "- "+q)
	}
	return strings.Join(lines, "\n")
}

// ConcatContent joins the content of every entry with single spaces.
func ConcatContent(entries []TranscriptEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Content)
	}
	return strings.Join(parts, " ")
}

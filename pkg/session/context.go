package session

import "github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"

// Mode selects what an attempt produces.
type Mode string

const (
	// ModeGenerate runs a setup conversation that produces a new interview.
	ModeGenerate Mode = "generate"
	// ModeTake runs an existing interview and produces feedback.
	ModeTake Mode = "take"
)

// Context is the per-mount configuration supplied by the page. The
// controller keeps a private copy and never mutates it.
type Context struct {
	UserName    string
	UserID      string
	InterviewID string
	FeedbackID  string
	Mode        Mode
	Questions   []string
}

func (c Context) clone() Context {
	c.Questions = append([]string(nil), c.Questions...)
	return c
}

type (
	Role            = interview.Role
	TranscriptEntry = interview.TranscriptEntry
)

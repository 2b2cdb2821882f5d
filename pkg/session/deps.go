package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/channel"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
)

// SideChannel is the telemetry client driven alongside the call.
type SideChannel interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// FeedbackService evaluates a transcript against an interview.
type FeedbackService interface {
	CreateFeedback(ctx context.Context, req interview.FeedbackRequest) (interview.FeedbackResponse, error)
}

// InterviewGenerator builds an interview from a setup conversation.
type InterviewGenerator interface {
	GenerateInterview(ctx context.Context, req interview.GenerateRequest) (interview.GenerateResponse, error)
}

// InterviewStore persists synthesized interviews.
type InterviewStore interface {
	SaveInterview(ctx context.Context, iv interview.Interview) (interview.SaveResult, error)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(path string)
}

// Notifier shows a one-off message to the user.
type Notifier interface {
	Notify(msg string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Deps are the collaborators a controller drives. Channel is required;
// everything else may be nil.
type Deps struct {
	Channel   channel.Channel
	Telemetry SideChannel
	Feedback  FeedbackService
	Generator InterviewGenerator
	Store     InterviewStore
	Navigator Navigator
	Notifier  Notifier
	Observer  metrics.Observer
	Logger    *slog.Logger
	// Picker chooses demo interviews in the fallback path.
	Picker interview.Picker
}

// Options tunes controller behaviour.
type Options struct {
	// WorkflowID is the channel target for generate mode.
	WorkflowID string
	// InterviewerID is the channel target for take mode.
	InterviewerID string

	TelemetryStartTimeout time.Duration
	TelemetryStopTimeout  time.Duration
	// RetryDelay separates a reset from the next start in RetryWithNewCall.
	// Negative disables the wait.
	RetryDelay time.Duration

	HomeRoute       string
	InterviewsRoute string
}

const (
	DefaultTelemetryTimeout = 5 * time.Second
	DefaultRetryDelay       = time.Second
)

func (o Options) withDefaults() Options {
	if o.TelemetryStartTimeout <= 0 {
		o.TelemetryStartTimeout = DefaultTelemetryTimeout
	}
	if o.TelemetryStopTimeout <= 0 {
		o.TelemetryStopTimeout = DefaultTelemetryTimeout
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	} else if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.HomeRoute == "" {
		o.HomeRoute = "/"
	}
	if o.InterviewsRoute == "" {
		o.InterviewsRoute = "/"
	}
	return o
}

// FeedbackRoute is where a finished interview's feedback is shown.
func FeedbackRoute(interviewID string) string {
	return "/interview/" + interviewID + "/feedback"
}

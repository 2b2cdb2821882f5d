package channel

import "fmt"

// EventKind identifies an Event variant.
type EventKind string

const (
	KindCallStarted   EventKind = "call-start"
	KindCallEnded     EventKind = "call-end"
	KindMessage       EventKind = "message"
	KindSpeechStarted EventKind = "speech-start"
	KindSpeechEnded   EventKind = "speech-end"
	KindError         EventKind = "error"
)

// Event is one notification from a voice channel. The concrete types below
// are the only implementations.
type Event interface {
	Kind() EventKind
}

type CallStarted struct{}

// CallEnded reports the remote side closed the call.
type CallEnded struct {
	Reason string
}

// Message carries a channel message. Only final transcripts are recorded.
type Message struct {
	Type           string
	TranscriptType string
	Role           string
	Transcript     string
}

const (
	MessageTypeTranscript = "transcript"
	TranscriptTypeFinal   = "final"
	TranscriptTypePartial = "partial"
)

// IsFinalTranscript reports whether m is a finalized utterance.
func (m Message) IsFinalTranscript() bool {
	return m.Type == MessageTypeTranscript && m.TranscriptType == TranscriptTypeFinal
}

type SpeechStarted struct{}

type SpeechEnded struct{}

// Error reports a channel failure. Err is never nil for events built with
// NewError.
type Error struct {
	Err error
}

// NewError wraps err in an Error event; a nil err becomes a generic error.
func NewError(err error) Error {
	if err == nil {
		err = fmt.Errorf("unknown channel error")
	}
	return Error{Err: err}
}

// Message returns the error text, or "" when Err is nil.
func (e Error) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (CallStarted) Kind() EventKind   { return KindCallStarted }
func (CallEnded) Kind() EventKind     { return KindCallEnded }
func (Message) Kind() EventKind       { return KindMessage }
func (SpeechStarted) Kind() EventKind { return KindSpeechStarted }
func (SpeechEnded) Kind() EventKind   { return KindSpeechEnded }
func (Error) Kind() EventKind         { return KindError }

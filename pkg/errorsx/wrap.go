package errorsx

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ReasonedError tags an error with the attempt stage that produced it.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Wrap tags err with reason. The innermost reason wins, so a channel_open
// failure stays channel_open however many layers wrap it.
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	if _, ok := find(err); ok {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

func Errorf(reason ReasonCode, format string, args ...any) error {
	return ReasonedError{Err: fmt.Errorf(format, args...), Reason: reason}
}

// Reason returns the reason carried by err, or ReasonUnknown.
func Reason(err error) ReasonCode {
	if re, ok := find(err); ok {
		return re.Reason
	}
	return ReasonUnknown
}

func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}

// Attr is the log attribute for err's reason.
func Attr(err error) slog.Attr {
	return slog.String("reason", string(Reason(err)))
}

// Stage is the leading segment of a reason: channel, telemetry, feedback,
// interview, generate or cascade.
func (r ReasonCode) Stage() string {
	stage, _, _ := strings.Cut(string(r), "_")
	return stage
}

func find(err error) (ReasonedError, bool) {
	var re ReasonedError
	if err == nil || !errors.As(err, &re) {
		return ReasonedError{}, false
	}
	return re, true
}

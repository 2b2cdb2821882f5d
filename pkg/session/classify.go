package session

import "strings"

// ErrorCategory buckets voice channel errors by the recovery they allow.
type ErrorCategory string

const (
	CategoryConnection ErrorCategory = "connection"
	CategoryPermission ErrorCategory = "permission"
	CategoryAuth       ErrorCategory = "auth"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ErrorState is the error currently shown to the user. Message is the
// remediation text; Cause keeps the raw channel message.
type ErrorState struct {
	Message  string
	Category ErrorCategory
	Cause    string
}

// Recoverable reports whether a plain retry may succeed without the user
// reconfiguring anything.
func (e ErrorState) Recoverable() bool {
	return e.Category != CategoryAuth
}

const (
	msgEjected    = "Call was disconnected. This usually happens due to network issues or server problems."
	msgNetwork    = "Network connection error. Please check your internet connection and try again."
	msgPermission = "Camera or microphone access denied. Please grant permissions and try again."
	msgAuth       = "Authentication error. Please check your voice channel configuration."
	msgUnknown    = "Unknown voice channel error occurred"
)

// Classify maps a raw channel error message onto an ErrorState. Matching is
// case-insensitive and ordered: connection, permission, auth.
func Classify(raw string) ErrorState {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "ejection"):
		return ErrorState{Message: msgEjected, Category: CategoryConnection, Cause: raw}
	case strings.Contains(s, "xhr poll error") || strings.Contains(s, "network"):
		return ErrorState{Message: msgNetwork, Category: CategoryConnection, Cause: raw}
	case strings.Contains(s, "permission") || strings.Contains(s, "access"):
		return ErrorState{Message: msgPermission, Category: CategoryPermission, Cause: raw}
	case strings.Contains(s, "token") || strings.Contains(s, "auth"):
		return ErrorState{Message: msgAuth, Category: CategoryAuth, Cause: raw}
	}
	msg := strings.TrimSpace(raw)
	if msg == "" {
		msg = msgUnknown
	}
	return ErrorState{Message: msg, Category: CategoryUnknown, Cause: raw}
}

// openFailure builds the ErrorState for a channel that failed to open.
// The raw message is kept as is; no call happened so nothing is remediated.
func openFailure(raw string) ErrorState {
	msg := strings.TrimSpace(raw)
	if msg == "" {
		msg = "Failed to start call"
	}
	return ErrorState{Message: msg, Category: CategoryUnknown, Cause: raw}
}

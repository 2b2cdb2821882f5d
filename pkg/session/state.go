package session

import "time"

// CallState is the lifecycle state of one interview attempt.
type CallState int

const (
	StateIdle CallState = iota
	StateConnecting
	StateActive
	StateFinished
)

func (s CallState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

var validTransitions = map[CallState][]CallState{
	StateIdle:       {StateConnecting},
	StateConnecting: {StateActive, StateFinished, StateIdle},
	StateActive:     {StateFinished, StateIdle},
	StateFinished:   {StateIdle},
}

func transitionValid(from, to CallState) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StateChange represents a call state transition.
type StateChange struct {
	From      CallState
	To        CallState
	Timestamp time.Time
	Reason    string
	Attempt   string

	token uint64
}

// StateListener observes call state changes. Listeners run outside the
// controller lock and may call back into the controller.
type StateListener interface {
	OnStateChange(event StateChange)
}

// StateListenerFunc adapts a function to StateListener.
type StateListenerFunc func(StateChange)

func (f StateListenerFunc) OnStateChange(event StateChange) { f(event) }

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From CallState
	To   CallState
}

func (e *InvalidTransitionError) Error() string {
	return "invalid call state transition from " + e.From.String() + " to " + e.To.String()
}

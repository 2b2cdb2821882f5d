package telemetry

import (
	"context"
	"time"
)

// ConnectionState is the telemetry socket state shown to the user.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)

// Camera acquires the local video device. Implementations are optional; the
// tracking backend can own the camera itself.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open camera stream.
type Stream interface {
	Stop()
}

// FrameSink receives decoded annotated frames from the tracker.
type FrameSink func(jpeg []byte)

// Alert is a transient attention warning from the tracker.
type Alert struct {
	Message string
	Count   int
	At      time.Time
}

// Gaze is the latest eye tracking sample.
type Gaze struct {
	FaceDetected bool
	EyeCount     int
	LookingAway  bool
	At           time.Time
}

// Status is a point-in-time view of the client for display.
type Status struct {
	State    ConnectionState
	Error    string
	Alert    *Alert
	Gaze     *Gaze
	Frames   int
	CameraOn bool
	LastPong time.Time
}

type inbound struct {
	Type         string `json:"type"`
	Frame        string `json:"frame,omitempty"`
	Message      string `json:"message,omitempty"`
	Count        int    `json:"count,omitempty"`
	Status       string `json:"status,omitempty"`
	FaceDetected bool   `json:"face_detected,omitempty"`
	EyeCount     int    `json:"eye_count,omitempty"`
	LookingAway  bool   `json:"looking_away,omitempty"`
}

type outbound struct {
	Type string `json:"type"`
}

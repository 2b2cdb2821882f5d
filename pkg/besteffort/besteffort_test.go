package besteffort

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/logging"
)

func TestDoSuccess(t *testing.T) {
	res := Do(context.Background(), logging.Discard(), "noop", time.Second, func(context.Context) error { return nil })
	if !res.OK() || res.TimedOut {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Op != "noop" {
		t.Fatalf("expected op name recorded, got %q", res.Op)
	}
}

func TestDoFailureIsReturnedNotRaised(t *testing.T) {
	boom := errors.New("backend unavailable")
	res := Do(context.Background(), logging.Discard(), "start", 0, func(context.Context) error { return boom })
	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected error captured, got %v", res.Err)
	}
}

func TestDoAbandonsHangingCall(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	start := time.Now()
	res := Do(context.Background(), logging.Discard(), "stop", 30*time.Millisecond, func(context.Context) error {
		<-release
		return nil
	})
	if !res.TimedOut {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("Do waited too long for a hanging call")
	}
}

func TestDoRecoversPanic(t *testing.T) {
	res := Do(context.Background(), logging.Discard(), "explode", time.Second, func(context.Context) error {
		panic("camera driver")
	})
	if res.OK() {
		t.Fatalf("expected panic to surface as error")
	}
}

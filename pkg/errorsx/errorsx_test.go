package errorsx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonFeedbackGenerate)
	if Reason(err) != ReasonFeedbackGenerate {
		t.Fatalf("expected reason %s, got %s", ReasonFeedbackGenerate, Reason(err))
	}
	if !HasReason(err, ReasonFeedbackGenerate) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonChannelOpen)
	second := Wrap(fmt.Errorf("start call: %w", first), ReasonInterviewPersist)
	if Reason(second) != ReasonChannelOpen {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestErrorfUnwraps(t *testing.T) {
	err := Errorf(ReasonCascadeExhausted, "feedback: %w", assertErr{})
	if !errors.Is(err, assertErr{}) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if Reason(err) != ReasonCascadeExhausted {
		t.Fatalf("expected reason %s, got %s", ReasonCascadeExhausted, Reason(err))
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("expected unknown reason for nil")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestReasonStageAndAttr(t *testing.T) {
	cases := map[ReasonCode]string{
		ReasonChannelOpen:       "channel",
		ReasonTelemetryControl:  "telemetry",
		ReasonGenerateRateLimit: "generate",
		ReasonCascadeExhausted:  "cascade",
		ReasonUnknown:           "unknown",
	}
	for reason, want := range cases {
		if got := reason.Stage(); got != want {
			t.Fatalf("stage of %s: got %q want %q", reason, got, want)
		}
	}
	attr := Attr(Wrap(assertErr{}, ReasonFeedbackPersist))
	if attr.Key != "reason" || attr.Value.String() != string(ReasonFeedbackPersist) {
		t.Fatalf("unexpected attr %v", attr)
	}
}

package session

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		raw      string
		category ErrorCategory
		message  string
	}{
		{"Meeting has ended due to ejection", CategoryConnection, msgEjected},
		{"xhr poll error", CategoryConnection, msgNetwork},
		{"Network request failed", CategoryConnection, msgNetwork},
		{"Permission denied by user", CategoryPermission, msgPermission},
		{"could not access microphone", CategoryPermission, msgPermission},
		{"Invalid token", CategoryAuth, msgAuth},
		{"AUTH header missing", CategoryAuth, msgAuth},
		{"something odd", CategoryUnknown, "something odd"},
		{"", CategoryUnknown, msgUnknown},
		// connection wins over the later buckets
		{"network access token", CategoryConnection, msgNetwork},
	}
	for _, tc := range cases {
		got := Classify(tc.raw)
		if got.Category != tc.category || got.Message != tc.message {
			t.Fatalf("Classify(%q) = %+v, want %s/%q", tc.raw, got, tc.category, tc.message)
		}
		if got.Cause != tc.raw {
			t.Fatalf("expected raw cause to be kept")
		}
	}
}

func TestErrorStateRecoverable(t *testing.T) {
	if (ErrorState{Category: CategoryAuth}).Recoverable() {
		t.Fatalf("auth errors need reconfiguration")
	}
	if !(ErrorState{Category: CategoryConnection}).Recoverable() {
		t.Fatalf("connection errors are retryable")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.TelemetryStopTimeout != DefaultTelemetryTimeout || o.RetryDelay != DefaultRetryDelay || o.HomeRoute != "/" {
		t.Fatalf("unexpected defaults %+v", o)
	}
	if (Options{RetryDelay: -1}).withDefaults().RetryDelay != 0 {
		t.Fatalf("negative retry delay should disable the wait")
	}
	if FeedbackRoute("abc") != "/interview/abc/feedback" {
		t.Fatalf("unexpected feedback route")
	}
}

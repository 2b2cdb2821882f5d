package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
)

func TestSaveInterviewAssignsID(t *testing.T) {
	s := New()
	ctx := context.Background()

	res, err := s.SaveInterview(ctx, interview.Interview{UserID: "u1", Role: "Backend Developer", Questions: []string{"q"}})
	if err != nil || !res.Success || res.InterviewID == "" {
		t.Fatalf("unexpected save result: %+v err=%v", res, err)
	}
	got, err := s.Interview(ctx, res.InterviewID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.ID != res.InterviewID || got.Role != "Backend Developer" || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected stored interview: %+v", got)
	}
}

func TestSaveInterviewCopiesSlices(t *testing.T) {
	s := New()
	qs := []string{"a", "b"}
	res, _ := s.SaveInterview(context.Background(), interview.Interview{Questions: qs})
	qs[0] = "changed"
	got, _ := s.Interview(context.Background(), res.InterviewID)
	if got.Questions[0] != "a" {
		t.Fatalf("stored interview aliases caller slice")
	}
}

func TestSaveFeedbackOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.SaveFeedback(ctx, interview.Feedback{InterviewID: "iv", UserID: "u", TotalScore: 40})
	if err != nil || id == "" {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := s.SaveFeedback(ctx, interview.Feedback{ID: id, InterviewID: "iv", UserID: "u", TotalScore: 90}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	fb, err := s.FeedbackFor(ctx, "iv", "u")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if fb.ID != id || fb.TotalScore != 90 {
		t.Fatalf("expected overwritten report, got %+v", fb)
	}
	if _, err := s.FeedbackFor(ctx, "iv", "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}

func TestInterviewsByUserNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, role := range []string{"old", "new", "mid"} {
		offset := map[int]time.Duration{0: 0, 1: 2 * time.Hour, 2: time.Hour}[i]
		_, _ = s.SaveInterview(ctx, interview.Interview{UserID: "u", Role: role, CreatedAt: base.Add(offset)})
	}
	_, _ = s.SaveInterview(ctx, interview.Interview{UserID: "someone-else", Role: "x"})

	list, err := s.InterviewsByUser(ctx, "u")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 || list[0].Role != "new" || list[1].Role != "mid" || list[2].Role != "old" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestSaveHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().SaveInterview(ctx, interview.Interview{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestMissingInterview(t *testing.T) {
	if _, err := New().Interview(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

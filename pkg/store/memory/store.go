// Package memory keeps interviews and feedback reports in process memory.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("memory: record not found")

type Store struct {
	interviews sync.Map // id -> interview.Interview
	feedback   sync.Map // id -> interview.Feedback
	now        func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// SaveInterview stores iv under a new id unless iv.ID is already set.
func (s *Store) SaveInterview(ctx context.Context, iv interview.Interview) (interview.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return interview.SaveResult{}, err
	}
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = s.now().UTC()
	}
	iv.TechStack = append([]string(nil), iv.TechStack...)
	iv.Questions = append([]string(nil), iv.Questions...)
	s.interviews.Store(iv.ID, iv)
	return interview.SaveResult{Success: true, InterviewID: iv.ID}, nil
}

// SaveFeedback stores fb, overwriting any report with the same id.
func (s *Store) SaveFeedback(ctx context.Context, fb interview.Feedback) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now().UTC()
	}
	fb.CategoryScores = append([]interview.CategoryScore(nil), fb.CategoryScores...)
	s.feedback.Store(fb.ID, fb)
	return fb.ID, nil
}

func (s *Store) Interview(_ context.Context, id string) (interview.Interview, error) {
	v, ok := s.interviews.Load(id)
	if !ok {
		return interview.Interview{}, ErrNotFound
	}
	return v.(interview.Interview), nil
}

// FeedbackFor returns the report for interviewID owned by userID.
func (s *Store) FeedbackFor(_ context.Context, interviewID, userID string) (interview.Feedback, error) {
	var (
		out   interview.Feedback
		found bool
	)
	s.feedback.Range(func(_, v any) bool {
		fb := v.(interview.Feedback)
		if fb.InterviewID == interviewID && fb.UserID == userID {
			out, found = fb, true
			return false
		}
		return true
	})
	if !found {
		return interview.Feedback{}, ErrNotFound
	}
	return out, nil
}

// InterviewsByUser lists userID's interviews, newest first.
func (s *Store) InterviewsByUser(_ context.Context, userID string) ([]interview.Interview, error) {
	var out []interview.Interview
	s.interviews.Range(func(_, v any) bool {
		if iv := v.(interview.Interview); iv.UserID == userID {
			out = append(out, iv)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

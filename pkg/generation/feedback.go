package generation

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
)

const feedbackSystem = "You are a professional interviewer analyzing a mock interview. " +
	"Your task is to evaluate the candidate based on structured categories."

var categoryHints = map[string]string{
	"Communication Skills": "Clarity, articulation, structured responses.",
	"Technical Knowledge":  "Understanding of key concepts for the role.",
	"Problem-Solving":      "Ability to analyze problems and propose solutions.",
	"Cultural & Role Fit":  "Alignment with company values and job role.",
	"Confidence & Clarity": "Confidence in responses, engagement, and clarity.",
}

type feedbackPayload struct {
	TotalScore     float64 `json:"totalScore"`
	CategoryScores []struct {
		Name    string  `json:"name"`
		Score   float64 `json:"score"`
		Comment string  `json:"comment"`
	} `json:"categoryScores"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	FinalAssessment     string   `json:"finalAssessment"`
}

// CreateFeedback scores the transcript and stores the report. A non-empty
// FeedbackID overwrites the existing report with that id.
func (s *Service) CreateFeedback(ctx context.Context, req interview.FeedbackRequest) (interview.FeedbackResponse, error) {
	if req.InterviewID == "" {
		return interview.FeedbackResponse{}, errorsx.Errorf(errorsx.ReasonFeedbackGenerate, "interview id is required")
	}
	var payload feedbackPayload
	err := s.generate(ctx, "feedback", Prompt{
		System: feedbackSystem,
		User:   feedbackPrompt(req.Transcript),
		Schema: feedbackResponseSchema(),
	}, func(raw string) error {
		payload = feedbackPayload{}
		return decodeValidated(raw, feedbackSchema, &payload)
	})
	if err != nil {
		s.log.Error("feedback_generate_failed",
			slog.String("interview_id", req.InterviewID),
			slog.String("error", err.Error()),
		)
		return interview.FeedbackResponse{}, errorsx.Wrap(err, errorsx.ReasonFeedbackGenerate)
	}

	fb := interview.Feedback{
		ID:                  req.FeedbackID,
		InterviewID:         req.InterviewID,
		UserID:              req.UserID,
		TotalScore:          score(payload.TotalScore),
		Strengths:           payload.Strengths,
		AreasForImprovement: payload.AreasForImprovement,
		FinalAssessment:     payload.FinalAssessment,
		CreatedAt:           s.now().UTC(),
	}
	for _, c := range payload.CategoryScores {
		fb.CategoryScores = append(fb.CategoryScores, interview.CategoryScore{
			Name:    c.Name,
			Score:   score(c.Score),
			Comment: c.Comment,
		})
	}
	id, err := s.store.SaveFeedback(ctx, fb)
	if err != nil {
		s.log.Error("feedback_persist_failed",
			slog.String("interview_id", req.InterviewID),
			slog.String("error", err.Error()),
		)
		return interview.FeedbackResponse{}, errorsx.Wrap(err, errorsx.ReasonFeedbackPersist)
	}
	s.log.Info("feedback_saved",
		slog.String("interview_id", req.InterviewID),
		slog.String("feedback_id", id),
		slog.Int("total_score", fb.TotalScore),
	)
	return interview.FeedbackResponse{Success: true, FeedbackID: id}, nil
}

func feedbackPrompt(transcript []interview.TranscriptEntry) string {
	var b strings.Builder
	b.WriteString("You are an AI interviewer analyzing a mock interview. Your task is to evaluate the candidate ")
	b.WriteString("based on structured categories. Be thorough and detailed in your analysis. Don't be lenient ")
	b.WriteString("with the candidate. If there are mistakes or areas for improvement, point them out.\n")
	b.WriteString("Transcript:\n")
	for _, e := range transcript {
		b.WriteString("- ")
		b.WriteString(string(e.Role))
		b.WriteString(": ")
		b.WriteString(e.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nPlease score the candidate from 0 to 100 in the following areas. ")
	b.WriteString("Do not add categories other than the ones provided:\n")
	for _, name := range Categories {
		b.WriteString("- **")
		b.WriteString(name)
		b.WriteString("**: ")
		b.WriteString(categoryHints[name])
		b.WriteString("\n")
	}
	return b.String()
}

func score(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

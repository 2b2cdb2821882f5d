package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
)

type questionsPayload struct {
	Questions []string `json:"questions"`
}

// GenerateInterview prepares questions for the requested role and stores a
// finalized interview owned by req.UserID.
func (s *Service) GenerateInterview(ctx context.Context, req interview.GenerateRequest) (interview.GenerateResponse, error) {
	req = withDefaults(req)
	var payload questionsPayload
	err := s.generate(ctx, "interview", Prompt{
		User:   questionsPrompt(req),
		Schema: questionsResponseSchema(),
	}, func(raw string) error {
		payload = questionsPayload{}
		return decodeValidated(raw, questionsSchema, &payload)
	})
	if err != nil {
		s.log.Error("interview_generate_failed", slog.String("role", req.Role), slog.String("error", err.Error()))
		return interview.GenerateResponse{Error: err.Error()}, errorsx.Wrap(err, errorsx.ReasonInterviewGenerate)
	}

	questions := payload.Questions
	if len(questions) > req.Amount {
		questions = questions[:req.Amount]
	}
	iv := interview.Interview{
		UserID:     req.UserID,
		Role:       req.Role,
		Type:       req.Type,
		Level:      req.Level,
		TechStack:  splitStack(req.TechStack),
		Questions:  questions,
		Finalized:  true,
		CoverImage: interview.CoverFor(req.Role),
		CreatedAt:  s.now().UTC(),
	}
	res, err := s.store.SaveInterview(ctx, iv)
	if err != nil {
		s.log.Error("interview_persist_failed", slog.String("error", err.Error()))
		return interview.GenerateResponse{Error: err.Error()}, errorsx.Wrap(err, errorsx.ReasonInterviewPersist)
	}
	s.log.Info("interview_saved",
		slog.String("interview_id", res.InterviewID),
		slog.String("role", iv.Role),
		slog.Int("questions", len(iv.Questions)),
	)
	return interview.GenerateResponse{Success: true, InterviewID: res.InterviewID}, nil
}

func withDefaults(req interview.GenerateRequest) interview.GenerateRequest {
	if req.Role == "" {
		req.Role = interview.DefaultRole
	}
	if req.Level == "" {
		req.Level = interview.DefaultLevel
	}
	if req.Type == "" {
		req.Type = interview.DefaultType
	}
	if req.TechStack == "" {
		req.TechStack = interview.DefaultTechStack
	}
	if req.Amount <= 0 {
		req.Amount = interview.DefaultAmount
	}
	return req
}

func questionsPrompt(req interview.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare questions for a job interview.\n")
	fmt.Fprintf(&b, "The job role is %s.\n", req.Role)
	fmt.Fprintf(&b, "The job experience level is %s.\n", req.Level)
	fmt.Fprintf(&b, "The tech stack used in the job is: %s.\n", req.TechStack)
	fmt.Fprintf(&b, "The focus between behavioural and technical questions should lean towards: %s.\n", req.Type)
	fmt.Fprintf(&b, "The amount of questions required is: %d.\n", req.Amount)
	if strings.TrimSpace(req.ConversationText) != "" {
		b.WriteString("Take the candidate's setup conversation into account:\n")
		b.WriteString(req.ConversationText)
		b.WriteString("\n")
	}
	b.WriteString("Return only the questions, without any additional text. ")
	b.WriteString("The questions are going to be read by a voice assistant so do not use \"/\" or \"*\" ")
	b.WriteString("or any other special characters which might break the voice assistant.\n")
	b.WriteString(`Respond as {"questions": ["Question 1", "Question 2"]}.`)
	return b.String()
}

func splitStack(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package interview

import "time"

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a channel role string onto a Role; unknown roles are
// attributed to the system.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s)
	default:
		return RoleSystem
	}
}

// TranscriptEntry is one finalized utterance.
type TranscriptEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Interview is a persisted interview record.
type Interview struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"userId"`
	Role       string    `json:"role"`
	Type       string    `json:"type"`
	Level      string    `json:"level"`
	TechStack  []string  `json:"techstack"`
	Questions  []string  `json:"questions"`
	Finalized  bool      `json:"finalized"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CategoryScore is one scored dimension of a feedback report.
type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Feedback is a persisted evaluation of one interview attempt.
type Feedback struct {
	ID                  string          `json:"id,omitempty"`
	InterviewID         string          `json:"interviewId"`
	UserID              string          `json:"userId"`
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// FeedbackRequest asks the feedback service to evaluate a transcript.
// FeedbackID, when set, overwrites an existing report.
type FeedbackRequest struct {
	InterviewID string            `json:"interviewId"`
	UserID      string            `json:"userId"`
	Transcript  []TranscriptEntry `json:"transcript"`
	FeedbackID  string            `json:"feedbackId,omitempty"`
}

type FeedbackResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}

// GenerateRequest asks for a new interview built from a setup conversation.
type GenerateRequest struct {
	Role             string `json:"role"`
	Level            string `json:"level"`
	Type             string `json:"type"`
	TechStack        string `json:"techstack"`
	Amount           int    `json:"amount"`
	UserID           string `json:"userid"`
	ConversationText string `json:"conversation"`
}

type GenerateResponse struct {
	Success     bool   `json:"success"`
	InterviewID string `json:"interviewId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SaveResult is returned by interview persistence.
type SaveResult struct {
	Success     bool   `json:"success"`
	InterviewID string `json:"interviewId"`
}

// Defaults used when an interview is generated from a free-form conversation.
const (
	DefaultRole      = "Software Developer"
	DefaultLevel     = "Junior"
	DefaultType      = "Mixed"
	DefaultTechStack = "JavaScript, React, Node.js"
	DefaultAmount    = 5
)

// NewGenerateRequest fills the default role, level, stack and question count.
func NewGenerateRequest(userID string, transcript []TranscriptEntry) GenerateRequest {
	return GenerateRequest{
		Role:             DefaultRole,
		Level:            DefaultLevel,
		Type:             DefaultType,
		TechStack:        DefaultTechStack,
		Amount:           DefaultAmount,
		UserID:           userID,
		ConversationText: FormatConversation(transcript),
	}
}

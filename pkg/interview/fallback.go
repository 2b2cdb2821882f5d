package interview

import (
	"math/rand"
	"strings"
	"time"
)

// Roles inferred from a transcript.
const (
	RoleFrontend  = "Frontend Developer"
	RoleBackend   = "Backend Developer"
	RoleFullStack = "Full Stack Developer"
	RoleSoftware  = "Software Developer"
)

// Levels inferred from a transcript.
const (
	LevelSenior = "Senior"
	LevelMid    = "Mid-level"
	LevelJunior = "Junior"
)

// MinMeaningfulContent is the concatenated transcript length at or below which
// the transcript is considered empty and a demo interview is used instead.
const MinMeaningfulContent = 10

var behavioralQuestions = []string{
	"Tell me about yourself and your background in software development.",
	"Describe a challenging project you worked on and how you overcame the obstacles.",
	"How do you handle disagreements or conflicting opinions within a team?",
}

var technicalQuestions = map[string][]string{
	RoleFrontend: {
		"How do you manage state in a large React application?",
		"What techniques do you use to improve web page performance?",
	},
	RoleBackend: {
		"How would you design a REST API that needs to scale to many clients?",
		"How do you approach database schema design and query optimization?",
	},
	RoleFullStack: {
		"Walk me through how a request flows from the browser to the database and back.",
		"How do you decide what logic belongs on the client versus the server?",
	},
	RoleSoftware: {
		"How do you approach debugging a problem you have never seen before?",
		"What practices do you follow to keep code maintainable and tested?",
	},
}

var roleStacks = map[string][]string{
	RoleFrontend:  {"JavaScript", "TypeScript", "React", "CSS"},
	RoleBackend:   {"Node.js", "Express", "PostgreSQL", "Docker"},
	RoleFullStack: {"JavaScript", "React", "Node.js", "MongoDB"},
	RoleSoftware:  {"JavaScript", "React", "Node.js", "TypeScript"},
}

var roleCovers = map[string]string{
	RoleFrontend:  "/covers/adobe.png",
	RoleBackend:   "/covers/amazon.png",
	RoleFullStack: "/covers/spotify.png",
	RoleSoftware:  "/covers/facebook.png",
}

var demoPool = []Interview{
	{
		Role:      RoleSoftware,
		Type:      DefaultType,
		Level:     LevelJunior,
		TechStack: []string{"JavaScript", "React", "Node.js", "TypeScript"},
		Questions: []string{
			"Tell me about your background and experience in software development",
			"What programming languages are you most comfortable with?",
			"How do you approach problem-solving when you encounter a bug?",
			"Describe a project you're particularly proud of and what you learned from it",
			"How do you stay updated with new technologies and industry trends?",
			"What's your experience with version control systems like Git?",
			"How do you handle working in a team environment?",
			"What's your approach to testing and debugging code?",
			"Tell me about a challenging technical problem you solved recently",
			"How do you prioritize tasks when working on multiple projects?",
		},
		Finalized:  true,
		CoverImage: "/covers/facebook.png",
	},
	{
		Role:      RoleFrontend,
		Type:      "Technical",
		Level:     LevelMid,
		TechStack: []string{"React", "TypeScript", "Next.js", "Tailwind CSS"},
		Questions: []string{
			"Explain the difference between controlled and uncontrolled components.",
			"How does the virtual DOM improve rendering performance?",
			"How would you make a component library accessible?",
			"Describe how you would debug a memory leak in a single-page app.",
			"How do you structure data fetching and caching on the client?",
		},
		Finalized:  true,
		CoverImage: "/covers/adobe.png",
	},
	{
		Role:      RoleBackend,
		Type:      "Technical",
		Level:     LevelJunior,
		TechStack: []string{"Node.js", "Express", "PostgreSQL"},
		Questions: []string{
			"What happens when a client sends an HTTP request to your server?",
			"How would you store user passwords securely?",
			"When would you choose a relational database over a document store?",
			"How do you handle errors in asynchronous code?",
			"Explain what an index is and when you would add one.",
		},
		Finalized:  true,
		CoverImage: "/covers/amazon.png",
	},
	{
		Role:      RoleFullStack,
		Type:      "Behavioral",
		Level:     LevelSenior,
		TechStack: []string{"React", "Node.js", "AWS"},
		Questions: []string{
			"Tell me about a time you led a technical decision on your team.",
			"How do you mentor less experienced engineers?",
			"Describe a production incident you handled and what you changed afterwards.",
			"How do you balance delivery speed with technical debt?",
			"How do you communicate technical trade-offs to non-technical stakeholders?",
		},
		Finalized:  true,
		CoverImage: "/covers/spotify.png",
	},
}

// InferRole picks a role from case-insensitive keywords in text.
func InferRole(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "frontend") || strings.Contains(t, "react"):
		return RoleFrontend
	case strings.Contains(t, "backend") || strings.Contains(t, "node"):
		return RoleBackend
	case strings.Contains(t, "full stack"):
		return RoleFullStack
	default:
		return RoleSoftware
	}
}

// InferLevel picks a seniority level from case-insensitive keywords in text.
func InferLevel(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "senior"):
		return LevelSenior
	case strings.Contains(t, "mid") || strings.Contains(t, "intermediate"):
		return LevelMid
	default:
		return LevelJunior
	}
}

// RoleQuestions returns three behavioral questions followed by two technical
// questions specific to role.
func RoleQuestions(role string) []string {
	tech, ok := technicalQuestions[role]
	if !ok {
		tech = technicalQuestions[RoleSoftware]
	}
	out := make([]string, 0, len(behavioralQuestions)+len(tech))
	out = append(out, behavioralQuestions...)
	return append(out, tech...)
}

// CoverFor returns the cover image used for role, falling back to the
// generic software cover.
func CoverFor(role string) string {
	if c, ok := roleCovers[role]; ok {
		return c
	}
	return roleCovers[RoleSoftware]
}

// DemoPool returns a copy of the fixed demo interviews.
func DemoPool() []Interview {
	out := make([]Interview, len(demoPool))
	for i, iv := range demoPool {
		out[i] = cloneInterview(iv)
	}
	return out
}

// Picker returns a uniformly distributed index in [0, n).
type Picker func(n int) int

// DefaultPicker draws from a time-seeded source.
func DefaultPicker() Picker {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return r.Intn
}

// Synthesize builds a stand-in interview for a transcript whose primary
// generation failed. Meaningful transcripts get a role-specific question set;
// empty ones get a random demo interview.
func Synthesize(userID string, transcript []TranscriptEntry, pick Picker) Interview {
	text := ConcatContent(transcript)
	var iv Interview
	if len(text) > MinMeaningfulContent {
		role := InferRole(text)
		iv = Interview{
			Role:       role,
			Type:       DefaultType,
			Level:      InferLevel(text),
			TechStack:  append([]string(nil), roleStacks[role]...),
			Questions:  RoleQuestions(role),
			Finalized:  true,
			CoverImage: roleCovers[role],
		}
	} else {
		if pick == nil {
			pick = DefaultPicker()
		}
		iv = cloneInterview(demoPool[pick(len(demoPool))])
	}
	iv.UserID = userID
	iv.CreatedAt = time.Now().UTC()
	return iv
}

func cloneInterview(iv Interview) Interview {
	iv.TechStack = append([]string(nil), iv.TechStack...)
	iv.Questions = append([]string(nil), iv.Questions...)
	return iv
}

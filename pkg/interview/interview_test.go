package interview

import (
	"strings"
	"testing"
)

func TestInferRole(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"I want to practice React interviews", RoleFrontend},
		{"FRONTEND role please", RoleFrontend},
		{"backend with go", RoleBackend},
		{"mostly Node services", RoleBackend},
		{"a full stack position", RoleFullStack},
		{"something general", RoleSoftware},
		{"react and node", RoleFrontend},
	}
	for _, tc := range cases {
		if got := InferRole(tc.text); got != tc.want {
			t.Fatalf("InferRole(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestInferLevel(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Senior engineer", LevelSenior},
		{"mid level", LevelMid},
		{"Intermediate", LevelMid},
		{"just graduated", LevelJunior},
	}
	for _, tc := range cases {
		if got := InferLevel(tc.text); got != tc.want {
			t.Fatalf("InferLevel(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestRoleQuestionsShape(t *testing.T) {
	for _, role := range []string{RoleFrontend, RoleBackend, RoleFullStack, RoleSoftware, "Unknown"} {
		qs := RoleQuestions(role)
		if len(qs) != 5 {
			t.Fatalf("role %q: expected 5 questions, got %d", role, len(qs))
		}
		for i := 0; i < 3; i++ {
			if qs[i] != behavioralQuestions[i] {
				t.Fatalf("role %q: expected behavioral question at %d", role, i)
			}
		}
	}
	if RoleQuestions("Unknown")[3] != RoleQuestions(RoleSoftware)[3] {
		t.Fatalf("expected unknown role to fall back to generic technical questions")
	}
}

func TestSynthesizeMeaningfulTranscript(t *testing.T) {
	entries := []TranscriptEntry{
		{Role: RoleUser, Content: "I am a senior react developer"},
		{Role: RoleAssistant, Content: "Great"},
	}
	iv := Synthesize("u1", entries, func(int) int {
		t.Fatalf("picker must not be used for meaningful transcripts")
		return 0
	})
	if iv.Role != RoleFrontend || iv.Level != LevelSenior {
		t.Fatalf("unexpected role/level %q/%q", iv.Role, iv.Level)
	}
	if iv.UserID != "u1" || !iv.Finalized || iv.Type != DefaultType {
		t.Fatalf("unexpected interview %+v", iv)
	}
	if len(iv.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(iv.Questions))
	}
}

func TestSynthesizeShortTranscriptUsesDemoPool(t *testing.T) {
	entries := []TranscriptEntry{{Role: RoleUser, Content: "hi"}}
	pool := DemoPool()
	for i := range pool {
		idx := i
		iv := Synthesize("u2", entries, func(n int) int {
			if n != len(pool) {
				t.Fatalf("expected pick over %d entries, got %d", len(pool), n)
			}
			return idx
		})
		if iv.Role != pool[i].Role || len(iv.Questions) != len(pool[i].Questions) {
			t.Fatalf("expected demo entry %d, got %+v", i, iv)
		}
		if iv.UserID != "u2" {
			t.Fatalf("expected user id on demo interview")
		}
	}
}

func TestSynthesizeThresholdIsExclusive(t *testing.T) {
	// "0123456789" is exactly ten characters: still a demo interview.
	entries := []TranscriptEntry{{Role: RoleUser, Content: "0123456789"}}
	picked := false
	Synthesize("u", entries, func(int) int { picked = true; return 0 })
	if !picked {
		t.Fatalf("expected demo pool for content of length 10")
	}
}

func TestSynthesizeDefaultPickerReachesEveryEntry(t *testing.T) {
	seen := map[string]bool{}
	pool := DemoPool()
	for i := 0; i < 500 && len(seen) < len(pool); i++ {
		iv := Synthesize("u", nil, nil)
		seen[iv.Role+"/"+iv.Level] = true
	}
	if len(seen) != len(pool) {
		t.Fatalf("expected all %d demo entries reachable, saw %d", len(pool), len(seen))
	}
}

func TestDemoPoolIsCopied(t *testing.T) {
	pool := DemoPool()
	pool[0].Questions[0] = "mutated"
	if DemoPool()[0].Questions[0] == "mutated" {
		t.Fatalf("expected DemoPool to return copies")
	}
	if len(DemoPool()[0].Questions) != 10 {
		t.Fatalf("expected the first demo interview to carry 10 questions")
	}
}

func TestFormatting(t *testing.T) {
	entries := []TranscriptEntry{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
	}
	if got := FormatConversation(entries); got != "user: hello\nassistant: hi there" {
		t.Fatalf("unexpected conversation %q", got)
	}
	if got := FormatQuestions([]string{"a", "b"}); got != "- a\n- b" {
		t.Fatalf("unexpected questions %q", got)
	}
	if got := ConcatContent(entries); got != "hello hi there" {
		t.Fatalf("unexpected concat %q", got)
	}
}

func TestNewGenerateRequestDefaults(t *testing.T) {
	req := NewGenerateRequest("u", []TranscriptEntry{{Role: RoleUser, Content: "x"}})
	if req.Role != DefaultRole || req.Level != DefaultLevel || req.Amount != DefaultAmount {
		t.Fatalf("unexpected defaults %+v", req)
	}
	if !strings.HasPrefix(req.ConversationText, "user: ") {
		t.Fatalf("unexpected conversation %q", req.ConversationText)
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole("user") != RoleUser || ParseRole("assistant") != RoleAssistant || ParseRole("bot") != RoleSystem {
		t.Fatalf("unexpected role parsing")
	}
}

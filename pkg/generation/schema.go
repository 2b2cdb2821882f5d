package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"google.golang.org/genai"
)

// Feedback categories scored by the model, in report order.
var Categories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem-Solving",
	"Cultural & Role Fit",
	"Confidence & Clarity",
}

const feedbackSchemaJSON = `{
  "type": "object",
  "required": ["totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"],
  "properties": {
    "totalScore": {"type": "number", "minimum": 0, "maximum": 100},
    "categoryScores": {
      "type": "array",
      "minItems": 5,
      "maxItems": 5,
      "items": {
        "type": "object",
        "required": ["name", "score", "comment"],
        "properties": {
          "name": {"enum": ["Communication Skills", "Technical Knowledge", "Problem-Solving", "Cultural & Role Fit", "Confidence & Clarity"]},
          "score": {"type": "number", "minimum": 0, "maximum": 100},
          "comment": {"type": "string"}
        }
      }
    },
    "strengths": {"type": "array", "items": {"type": "string"}},
    "areasForImprovement": {"type": "array", "items": {"type": "string"}},
    "finalAssessment": {"type": "string", "minLength": 1}
  }
}`

const questionsSchemaJSON = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

var (
	feedbackSchema  = mustCompile("feedback.schema.json", feedbackSchemaJSON)
	questionsSchema = mustCompile("questions.schema.json", questionsSchemaJSON)
)

func mustCompile(name, raw string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return sch
}

// decodeValidated checks raw model output against sch and decodes it into out.
// Markdown code fences around the JSON are tolerated.
func decodeValidated(raw string, sch *jsonschema.Schema, out any) error {
	text := stripFences(raw)
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("model output is not json: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("model output does not match schema: %w", err)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func feedbackResponseSchema() *genai.Schema {
	names := make([]string, len(Categories))
	copy(names, Categories)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"totalScore": {Type: genai.TypeNumber},
			"categoryScores": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":    {Type: genai.TypeString, Enum: names},
						"score":   {Type: genai.TypeNumber},
						"comment": {Type: genai.TypeString},
					},
					Required: []string{"name", "score", "comment"},
				},
			},
			"strengths":           {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"areasForImprovement": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"finalAssessment":     {Type: genai.TypeString},
		},
		Required: []string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"},
	}
}

func questionsResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"questions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"questions"},
	}
}

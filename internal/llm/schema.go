package llm

import (
	"encoding/json"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

// EvaluationSchema returns the JSON Schema (draft 2020-12 subset) for structured
// evaluations. It is embedded in the structured prompt and used locally to validate.
func EvaluationSchema() map[string]any {
	criteria := make([]string, 0, len(constants.Rubric))
	for _, r := range constants.Rubric {
		criteria = append(criteria, string(r.Criterion))
	}
	row := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"criterion":   map[string]any{"type": "string", "minLength": 1},
			"score":       map[string]any{"type": "number", "minimum": 0},
			"max":         map[string]any{"type": "number", "minimum": 1},
			"explanation": map[string]any{"type": "string"},
		},
		"required": []string{"criterion", "score", "max"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"strengths":             map[string]any{"type": "string"},
			"areas_for_improvement": map[string]any{"type": "string"},
			"score_breakdown":       map[string]any{"type": "array", "items": row, "maxItems": len(criteria) * 2},
			"total_score":           map[string]any{"type": "number", "minimum": 0, "maximum": constants.MaxScore},
			"final_verdict":         map[string]any{"type": "string"},
		},
		"required": []string{"strengths", "areas_for_improvement", "score_breakdown", "total_score", "final_verdict"},
	}
}

// Evaluation is the decoded form of a structured response.
type Evaluation struct {
	Strengths           string         `json:"strengths"`
	AreasForImprovement string         `json:"areas_for_improvement"`
	ScoreBreakdown      []CriterionRow `json:"score_breakdown"`
	TotalScore          float64        `json:"total_score"`
	FinalVerdict        string         `json:"final_verdict"`
}

type CriterionRow struct {
	Criterion   string  `json:"criterion"`
	Score       float64 `json:"score"`
	Max         float64 `json:"max"`
	Explanation string  `json:"explanation,omitempty"`
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

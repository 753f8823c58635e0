package llm

import "context"

// Mode selects the response format requested from the model.
type Mode string

const (
	// ModeTemplate asks for the fixed sectioned plain-text format.
	ModeTemplate Mode = "template"
	// ModeStructured asks for a JSON object matching EvaluationSchema.
	ModeStructured Mode = "structured"
)

// ParseMode maps a config string to a Mode, defaulting to ModeTemplate.
func ParseMode(s string) Mode {
	if Mode(s) == ModeStructured {
		return ModeStructured
	}
	return ModeTemplate
}

// Persona is the instructor the model speaks as.
type Persona struct {
	Name string
	Role string
}

// ScoreRequest carries the three text blocks embedded in the prompt.
type ScoreRequest struct {
	Question        string
	SupportingText  string
	FinalOutputText string
}

// Scorer is the interface our pipeline depends on.
// Score returns the model's first completion text unmodified.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (string, error)
}

package constants

import (
	"strings"
)

// Criterion is one rubric line of the scoring prompt.
type Criterion string

const (
	CodeQuality    Criterion = "Code Quality"
	ProblemSolving Criterion = "Problem-Solving"
	Documentation  Criterion = "Documentation"
	BestPractices  Criterion = "Best Practices"
)

// Rubric is the fixed marking scheme (total 10 marks), in prompt order.
var Rubric = []struct {
	Criterion Criterion
	Title     string
	Marks     int
}{
	{CodeQuality, "Code Quality and Structure", 5},
	{ProblemSolving, "Problem-Solving Approach", 2},
	{Documentation, "Documentation and Comments", 2},
	{BestPractices, "Best Practices", 1},
}

// Canonicalize maps a criterion label written by the model onto the rubric.
// Unknown labels are returned unchanged with ok=false.
func Canonicalize(input string) (Criterion, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Criterion{
		"code quality and structure": CodeQuality,
		"code structure":             CodeQuality,
		"problem solving":            ProblemSolving,
		"problem-solving approach":   ProblemSolving,
		"problem solving approach":   ProblemSolving,
		"documentation and comments": Documentation,
		"comments":                   Documentation,
		"best practice":              BestPractices,
	}
	if c, ok := synonyms[normalized]; ok {
		return c, true
	}
	for _, r := range Rubric {
		if normalized == strings.ToLower(string(r.Criterion)) {
			return r.Criterion, true
		}
	}
	return Criterion(strings.TrimSpace(input)), false
}

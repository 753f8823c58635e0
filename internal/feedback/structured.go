package feedback

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm"
)

func parseStructured(raw string) (Feedback, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "```") {
		return Feedback{}, false
	}
	ev, err := llm.DecodeEvaluation(trimmed)
	if err != nil {
		return Feedback{}, false
	}

	fb := Feedback{
		Raw:          raw,
		Score:        ev.TotalScore,
		ScoreFound:   true,
		Structured:   true,
		Strengths:    ev.Strengths,
		Improvements: ev.AreasForImprovement,
		TotalScore:   " " + num(ev.TotalScore) + "/10",
		FinalVerdict: ev.FinalVerdict,
	}

	lines := make([]string, 0, len(ev.ScoreBreakdown))
	for _, r := range ev.ScoreBreakdown {
		row := BreakdownRow{
			Criterion:   strings.TrimSpace(r.Criterion),
			Score:       num(r.Score) + "/" + num(r.Max),
			Explanation: strings.TrimSpace(r.Explanation),
		}
		if c, ok := constants.Canonicalize(row.Criterion); ok {
			row.Canonical = c
		}
		fb.Rows = append(fb.Rows, row)
		lines = append(lines, row.Criterion+": "+row.Cell())
	}
	fb.Breakdown = strings.Join(lines, "\n")
	return fb, true
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package feedback

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

const structuredDoc = `{
  "strengths": "Readable code.",
  "areas_for_improvement": "Handle edge cases.",
  "score_breakdown": [
    {"criterion": "Code Quality", "score": 4, "max": 5, "explanation": "Well organised"},
    {"criterion": "Problem-Solving", "score": 1.5, "max": 2}
  ],
  "total_score": 6.5,
  "final_verdict": "Good work."
}`

func TestParseStructured(t *testing.T) {
	fb := Parse(structuredDoc)
	if !fb.Structured || !fb.ScoreFound || fb.Score != 6.5 {
		t.Fatalf("structured: got=%+v", fb)
	}
	if len(fb.Rows) != 2 || fb.Rows[0].Cell() != "4/5 – Well organised" || fb.Rows[1].Score != "1.5/2" {
		t.Fatalf("rows: got=%+v", fb.Rows)
	}
	if fb.Rows[1].Canonical != constants.ProblemSolving {
		t.Fatalf("canonical: got=%q", fb.Rows[1].Canonical)
	}
}

func TestStructuredTextReparses(t *testing.T) {
	fb := Parse(structuredDoc)
	text := fb.Text()
	if !strings.Contains(text, "TOTAL SCORE: 6.5/10") {
		t.Fatalf("text: %s", text)
	}
	again := Parse(text)
	if again.Structured || again.Score != 6.5 {
		t.Fatalf("reparse: got score=%v structured=%v", again.Score, again.Structured)
	}
	if CleanProse(again.Strengths) != "Readable code." || CleanProse(again.FinalVerdict) != "Good work." {
		t.Fatalf("reparse sections: %+v", again)
	}
	if len(again.Rows) != 2 || again.Rows[0] != fb.Rows[0] {
		t.Fatalf("reparse rows: want=%+v got=%+v", fb.Rows, again.Rows)
	}
}

func TestInvalidJSONFallsBackToPatterns(t *testing.T) {
	fb := Parse(`{"total_score": "high"} TOTAL SCORE: 4/10`)
	if fb.Structured {
		t.Fatalf("want pattern fallback")
	}
	if fb.Score != 4 || !fb.ScoreFound {
		t.Fatalf("score: got=%v", fb.Score)
	}
}

package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

const templateFormat = `Provide feedback in this format:

STRENGTHS:
[Write a short paragraph summarizing the main strengths.]

AREAS FOR IMPROVEMENT:
[Write a short paragraph summarizing the main areas for improvement.]

SCORE BREAKDOWN:
Code Quality: [score]/5 – [brief explanation]
Problem-Solving: [score]/2 – [brief explanation]
Documentation: [score]/2 – [brief explanation]
Best Practices: [score]/1 – [brief explanation]

TOTAL SCORE: [total score]/10

FINAL VERDICT:
[Write a short paragraph with the final verdict and encouragement.]

Please strictly follow this format so that each score breakdown line is present and detailed.`

const structuredFormat = `Return ONLY a JSON object (no prose, no code fences) that matches this JSON Schema:
`

// BuildPrompt renders the single user message sent to the model. The three
// blocks are embedded verbatim.
func BuildPrompt(req ScoreRequest, who Persona, mode Mode) string {
	var b strings.Builder

	b.WriteString("You are ")
	if n := strings.TrimSpace(who.Name); n != "" {
		b.WriteString(n)
		b.WriteString(", ")
	}
	if r := strings.TrimSpace(who.Role); r != "" {
		b.WriteString("a ")
		b.WriteString(r)
		b.WriteString(" and ")
	}
	b.WriteString("an experienced senior instructor. Analyze the following assignment submission ")
	b.WriteString("with an encouraging and supporting tone and provide detailed feedback.\n\n")

	b.WriteString("Question:\n")
	b.WriteString(req.Question)
	b.WriteString("\n\nSupporting Documents:\n")
	b.WriteString(req.SupportingText)
	b.WriteString("\n\nFinal Output:\n")
	b.WriteString(req.FinalOutputText)
	b.WriteString("\n\n")

	b.WriteString("Evaluate the submission based on these criteria (Total 10 marks):\n")
	for i, c := range constants.Rubric {
		unit := "marks"
		if c.Marks == 1 {
			unit = "mark"
		}
		fmt.Fprintf(&b, "%d. %s (%d %s)\n", i+1, c.Title, c.Marks, unit)
	}
	b.WriteString("\n")

	if mode == ModeStructured {
		b.WriteString(structuredFormat)
		b.WriteString(mustJSON(EvaluationSchema()))
		b.WriteString("\nUse the criterion names Code Quality, Problem-Solving, Documentation and Best Practices.")
		return b.String()
	}
	b.WriteString(templateFormat)
	return b.String()
}

// Package feedback turns a raw model evaluation into a score and report sections.
package feedback

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

// Section headers as they appear in template-mode responses.
const (
	HeaderStrengths    = "STRENGTHS:"
	HeaderImprovements = "AREAS FOR IMPROVEMENT:"
	HeaderBreakdown    = "SCORE BREAKDOWN:"
	HeaderTotal        = "TOTAL SCORE:"
	HeaderVerdict      = "FINAL VERDICT:"
)

var (
	reTotalScore = regexp.MustCompile(`(?i)TOTAL SCORE:\s*([0-9]+(?:\.[0-9]+)?)\s*/?(?:10)?`)
	reAnyScore   = regexp.MustCompile(`(?i)SCORE:\s*([0-9]+(?:\.[0-9]+)?)\s*/?(?:10)?`)

	// Each section runs non-greedily to the next header that may follow it.
	reStrengths    = regexp.MustCompile(`(?s)STRENGTHS:(.*?)(?:AREAS FOR IMPROVEMENT:|SCORE BREAKDOWN:|TOTAL SCORE:|FINAL VERDICT:)`)
	reImprovements = regexp.MustCompile(`(?s)AREAS FOR IMPROVEMENT:(.*?)(?:SCORE BREAKDOWN:|TOTAL SCORE:|FINAL VERDICT:)`)
	reBreakdown    = regexp.MustCompile(`(?s)SCORE BREAKDOWN:(.*?)(?:TOTAL SCORE:|FINAL VERDICT:)`)
	reTotal        = regexp.MustCompile(`(?s)TOTAL SCORE:(.*?)FINAL VERDICT:`)
	reVerdict      = regexp.MustCompile(`(?s)FINAL VERDICT:(.*)`)
)

// Feedback is one parsed evaluation. Section fields hold the text found between
// headers, untrimmed and uncleaned; an absent section is "".
type Feedback struct {
	Raw        string
	Score      float64
	ScoreFound bool
	Structured bool // read from a JSON evaluation instead of headers

	Strengths    string
	Improvements string
	Breakdown    string
	TotalScore   string
	FinalVerdict string

	Rows []BreakdownRow
}

// Parse extracts the score and sections from raw. JSON evaluations that satisfy
// the evaluation schema are read field by field; anything else goes through
// header matching.
func Parse(raw string) Feedback {
	if fb, ok := parseStructured(raw); ok {
		return fb
	}

	fb := Feedback{Raw: raw}
	fb.Score, fb.ScoreFound = ExtractScore(raw)
	fb.Strengths = firstGroup(reStrengths, raw)
	fb.Improvements = firstGroup(reImprovements, raw)
	fb.Breakdown = firstGroup(reBreakdown, raw)
	fb.TotalScore = firstGroup(reTotal, raw)
	fb.FinalVerdict = firstGroup(reVerdict, raw)
	fb.Rows = ParseBreakdown(fb.Breakdown)
	return fb
}

// ExtractScore finds "TOTAL SCORE: n", falling back to "SCORE: n". The value
// is not range-checked. ok is false when neither pattern matches.
func ExtractScore(raw string) (float64, bool) {
	for _, re := range []*regexp.Regexp{reTotalScore, reAnyScore} {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// Label maps a score onto the tri-state result. Lower bounds are inclusive.
func Label(score float64) constants.EvaluationResult {
	switch {
	case score >= constants.PassThreshold:
		return constants.ResultPass
	case score >= constants.CanImproveThreshold:
		return constants.ResultCanImprove
	default:
		return constants.ResultRework
	}
}

// Clamp bounds a parsed score to [0, MaxScore].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > constants.MaxScore {
		return constants.MaxScore
	}
	return score
}

// FormatScore renders a score with one decimal, e.g. "7.5".
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

// Text renders the canonical sectioned form. Template responses are returned
// as received.
func (f Feedback) Text() string {
	if !f.Structured {
		return f.Raw
	}
	var b strings.Builder
	writeSection := func(header, body string) {
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(body))
		b.WriteString("\n\n")
	}
	writeSection(HeaderStrengths, f.Strengths)
	writeSection(HeaderImprovements, f.Improvements)
	writeSection(HeaderBreakdown, f.Breakdown)
	fmt.Fprintf(&b, "%s %s/10\n\n", HeaderTotal, strconv.FormatFloat(f.Score, 'f', -1, 64))
	b.WriteString(HeaderVerdict)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(f.FinalVerdict))
	b.WriteString("\n")
	return b.String()
}

package feedback

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

var (
	reFractionLead = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?\s*/\s*[0-9]+)\s*[–-]?\s*(.*)`)
	reEnumerator   = regexp.MustCompile(`^[0-9]+[.)]\s*`)
)

// BreakdownRow is one "Criterion: score – explanation" line.
type BreakdownRow struct {
	Criterion   string              // label as written before the first colon
	Canonical   constants.Criterion // rubric criterion, empty when unrecognised
	Score       string              // e.g. "4/5"
	Explanation string
}

// Cell renders the second table column: "score – explanation", or the score
// alone when there is no explanation.
func (r BreakdownRow) Cell() string {
	if r.Explanation == "" {
		return r.Score
	}
	return r.Score + " – " + r.Explanation
}

// ParseBreakdown reads rows from the SCORE BREAKDOWN section. A qualifying line
// contains ':' and does not start with '-' or '*' once bold markers are removed.
func ParseBreakdown(section string) []BreakdownRow {
	var rows []BreakdownRow
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
		if line == "" || !strings.Contains(line, ":") ||
			strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			continue
		}
		label, rest, _ := strings.Cut(line, ":")
		row := BreakdownRow{Criterion: strings.TrimSpace(label)}
		rest = strings.TrimSpace(rest)

		if m := reFractionLead.FindStringSubmatch(rest); m != nil {
			row.Score = strings.ReplaceAll(m[1], " ", "")
			row.Explanation = strings.TrimSpace(m[2])
		} else if fields := strings.Fields(rest); len(fields) > 0 {
			row.Score = fields[0]
			row.Explanation = strings.Join(fields[1:], " ")
		} else {
			row.Score = rest
		}
		if c, ok := constants.Canonicalize(reEnumerator.ReplaceAllString(row.Criterion, "")); ok {
			row.Canonical = c
		}
		rows = append(rows, row)
	}
	return rows
}

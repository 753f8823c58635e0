package feedback

import (
	"regexp"
	"strings"
)

var reBullets = regexp.MustCompile(`[\-*•]+`)

// CleanMarkdown strips bullet and emphasis markers and heading hashes.
func CleanMarkdown(s string) string {
	s = reBullets.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "###", "")
	return strings.TrimSpace(s)
}

// CleanProse is CleanMarkdown plus the dangling-period fixups applied to
// paragraph sections.
func CleanProse(s string) string {
	s = CleanMarkdown(s)
	s = strings.ReplaceAll(s, " .", ".")
	s = strings.ReplaceAll(s, "..", ".")
	return strings.TrimSpace(s)
}

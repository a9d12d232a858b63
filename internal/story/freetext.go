package story

import (
	"regexp"
	"strings"
)

var (
	freeBulletRe   = regexp.MustCompile(`(?m)^\s*(?:[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}]|-\s)`)
	freeNumberedRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s`)
	freeBlankRe    = regexp.MustCompile(`\n[ \t]*\n`)
	freeLabelRe    = regexp.MustCompile(`(?mi)^\s*(?:vin|concern|verification|diagnosis|repair|parts used|parts|time spent|time|extra notes|extra)\s*:`)
	freePhraseRe   = regexp.MustCompile(`(?i)\bcustomer\s+states\b`)
)

// ValidateFreeText scans plain model output for formatting the prose
// flow forbids. An empty result means the text is acceptable as
// written; otherwise the violations drive the retry instruction.
func ValidateFreeText(text string) []string {
	var violations []string

	if strings.TrimSpace(text) == "" {
		return []string{"output is empty"}
	}
	if freeBulletRe.MatchString(text) {
		violations = append(violations, "output contains bullet markers")
	}
	if freeNumberedRe.MatchString(text) {
		violations = append(violations, "output contains numbered list markers")
	}
	if freeBlankRe.MatchString(text) {
		violations = append(violations, "output contains blank lines")
	}
	if freeLabelRe.MatchString(text) {
		violations = append(violations, "output contains section labels")
	}
	if freePhraseRe.MatchString(text) {
		violations = append(violations, `output contains the banned phrase "customer states"`)
	}
	if strings.ContainsAny(text, "—–") {
		violations = append(violations, "output contains non-ASCII dashes")
	}

	return violations
}

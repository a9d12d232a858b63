package story

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"dealerops.dev/storyline/internal/model"
)

var (
	bulletRe      = regexp.MustCompile(`(?m)^\s*[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}]+\s+`)
	dashBulletRe  = regexp.MustCompile(`(?m)^\s*-\s+`)
	numberParenRe = regexp.MustCompile(`(?m)^\s*\d+\)\s+`)
	numberDotRe   = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	labelLineRe   = regexp.MustCompile(`(?mi)^\s*(?:vin|concern|verification|diagnosis|repair|parts used|parts|time spent|time|extra notes|extra)\s*:\s*`)
	blankLinesRe  = regexp.MustCompile(`\n{2,}`)

	durationLineRe  = regexp.MustCompile(`(?mi)^.*(?:\b\d+(?:\.\d+)?\s*(?:hours?|hrs?|minutes?|mins?)\b|\bhours?\b|\btime\s+(?:spent|justification)\b|\blabor\s+(?:time|hours)\b|\bstraight\s+time\b).*\n?`)
	milesRe         = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:miles|mile|mi)\b`)
	ifEquippedRe    = regexp.MustCompile(`(?i),?\s*\bif equipped\b`)
	customerStateRe = regexp.MustCompile(`(?i)\bcustomer\s+states\b`)
)

// NormalizeStory is the final scrub every story passes through, in both
// the structured and the free-text flow. It flattens list markers,
// strips echoed labels, drops duration references, converts distances
// to km, and settles whitespace. Running it twice yields the same text.
func NormalizeStory(text string, ro model.RepairOrder) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = strings.ReplaceAll(t, "—", "-")
	t = strings.ReplaceAll(t, "–", "-")

	t = bulletRe.ReplaceAllString(t, "")
	t = dashBulletRe.ReplaceAllString(t, "")
	t = numberParenRe.ReplaceAllString(t, "")
	t = numberDotRe.ReplaceAllString(t, "")
	t = labelLineRe.ReplaceAllString(t, "")
	t = durationLineRe.ReplaceAllString(t, "")

	t = milesRe.ReplaceAllStringFunc(t, milesToKm)
	if !strings.Contains(mentionText(ro), "if equipped") {
		t = ifEquippedRe.ReplaceAllString(t, "")
		t = spaceBeforePunct.ReplaceAllString(t, "$1")
	}
	t = customerStateRe.ReplaceAllString(t, "Customer reported")

	t = blankLinesRe.ReplaceAllString(t, "\n")
	lines := strings.Split(t, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func milesToKm(match string) string {
	sub := milesRe.FindStringSubmatch(match)
	miles, err := strconv.ParseFloat(sub[1], 64)
	if err != nil {
		return match
	}
	km := int(math.Round(miles * 1.609))
	return strconv.Itoa(km) + " km"
}

package story

import (
	"regexp"
	"strings"

	"dealerops.dev/storyline/internal/model"
)

// Diagnostic narration that does not belong in a repair block unless
// the writer used the same language in the repair field.
var diagnosticTokens = []string{"diagnos", "tested", "checked", "inspected", "traced", "scanned", "measured", "monitored"}

var actionVerbs = []string{"removed", "installed", "replaced", "repaired", "performed", "resealed", "reprogrammed", "adjusted", "secured", "torqued"}

const (
	fallbackRepairSentence = "Performed required repair."
	torqueSentence         = "All fasteners torqued to specification."
	genericManualSentence  = "Repair performed per workshop manual procedure."
)

// Matches "TSB 22-2134", "per WSM section 501-02", "bulletin #4512".
// The trailing token must carry a digit so prose like "bulletin
// procedures" is not mistaken for a reference.
var manualRefRe = regexp.MustCompile(`(?i)\b(?:tsb|ssm|wsm|bulletin|section)\b[ #:-]*(?:(?:section|no\.?|number|id)\b[ #:-]*)?([A-Za-z0-9./-]*\d[A-Za-z0-9./-]*)`)

// enforceWorkshop rewrites repair text into workshop-procedure form:
// sentences that smuggle in diagnostic narration are dropped, and the
// result is guaranteed an action verb, a torque statement, and a manual
// reference.
func enforceWorkshop(text string, ro model.RepairOrder) string {
	userRepair := strings.ToLower(ro.Repair)

	sentences := sentenceRe.FindAllString(text, -1)
	kept := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		if smuggledDiagnostic(strings.ToLower(trimmed), userRepair) {
			continue
		}
		kept = append(kept, trimmed)
	}
	out := strings.Join(kept, " ")

	if !containsAny(strings.ToLower(out), actionVerbs) {
		out = joinSentence(out, fallbackRepairSentence)
	}
	if !strings.Contains(strings.ToLower(out), "torque") {
		out = joinSentence(out, torqueSentence)
	}
	return joinSentence(out, manualSentence(out, ro))
}

func smuggledDiagnostic(lowerSentence, userRepair string) bool {
	for _, token := range diagnosticTokens {
		if strings.Contains(lowerSentence, token) && !strings.Contains(userRepair, token) {
			return true
		}
	}
	return false
}

// manualSentence picks the reference sentence to close the repair
// block with: the writer's bulletin or manual section when one appears
// in the repair, extra, or parts text, else the generic statement.
func manualSentence(current string, ro model.RepairOrder) string {
	lower := strings.ToLower(current)
	if ref := findManualRef(ro); ref != "" {
		if strings.Contains(lower, strings.ToLower(ref)) {
			return ""
		}
		return "Completed repair per " + ref + "."
	}
	if strings.Contains(lower, "workshop manual") || strings.Contains(lower, "per manual") {
		return ""
	}
	return genericManualSentence
}

func findManualRef(ro model.RepairOrder) string {
	source := strings.Join([]string{ro.Repair, ro.Extra, ro.Parts}, " ")
	if sub := manualRefRe.FindStringSubmatch(source); sub != nil {
		return strings.TrimRight(strings.TrimSpace(sub[0]), "./-")
	}
	return ""
}

func joinSentence(current, extra string) string {
	if extra == "" {
		return current
	}
	if current == "" {
		return extra
	}
	return current + " " + extra
}

func containsAny(lowerText string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(lowerText, token) {
			return true
		}
	}
	return false
}

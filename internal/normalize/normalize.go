package normalize

import (
	"regexp"
	"strings"

	"dealerops.dev/storyline/internal/model"
)

var (
	// concernLabelRe matches an embedded concern line inside a diagnosis
	// blob, e.g. "Concern: no start" or "Customer concern: rattle".
	concernLabelRe = regexp.MustCompile(`(?mi)^[ \t]*(?:customer[ \t]+)?concern[ \t]*:[ \t]*(.*)$`)

	// noCodesRe matches the "no codes" remark in its common spellings,
	// with an optional present/found/stored suffix and trailing period.
	noCodesRe = regexp.MustCompile(`(?i)\bno\s+(?:dtc'?s?|(?:trouble\s+)?codes?)(?:\s+(?:present|found|stored))?\b\.?`)

	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
	blankLinesRe = regexp.MustCompile(`\n{2,}`)
)

// noCodesLine is the normalized diagnosis statement for the relocated
// "no codes" fact.
const noCodesLine = "No DTCs stored."

// Normalize trims every request field, pulls an embedded concern line out
// of the diagnosis, and relocates a "no codes" remark from the concern
// into the diagnosis so the fact is not lost. Best-effort: it never fails
// and is a no-op when nothing matches.
func Normalize(ro model.RepairOrder) model.RepairOrder {
	out := trimFields(ro)

	if out.Concern == "" && out.Diagnosis != "" {
		out.Concern, out.Diagnosis = extractConcern(out.Diagnosis)
	}

	if out.Concern != "" && noCodesRe.MatchString(out.Concern) {
		out.Concern = stripNoCodes(out.Concern)
		if !noCodesRe.MatchString(out.Diagnosis) {
			if out.Diagnosis == "" {
				out.Diagnosis = noCodesLine
			} else {
				out.Diagnosis += "\n" + noCodesLine
			}
		}
	}

	return out
}

// extractConcern pulls the first labeled concern line out of the
// diagnosis text. Returns the extracted concern (possibly empty) and the
// diagnosis with the label line removed.
func extractConcern(diagnosis string) (string, string) {
	loc := concernLabelRe.FindStringSubmatchIndex(diagnosis)
	if loc == nil {
		return "", diagnosis
	}

	extracted := strings.TrimSpace(diagnosis[loc[2]:loc[3]])
	if extracted == "" {
		// A bare label with no remainder carries nothing worth moving.
		return "", diagnosis
	}

	remainder := diagnosis[:loc[0]] + diagnosis[loc[1]:]
	remainder = blankLinesRe.ReplaceAllString(remainder, "\n")
	return extracted, strings.TrimSpace(remainder)
}

// stripNoCodes removes the "no codes" phrase from the concern and cleans
// the punctuation the removal leaves behind.
func stripNoCodes(concern string) string {
	cleaned := noCodesRe.ReplaceAllString(concern, "")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	return strings.Trim(cleaned, " \t,;")
}

func trimFields(ro model.RepairOrder) model.RepairOrder {
	return model.RepairOrder{
		VIN:             strings.TrimSpace(ro.VIN),
		Mileage:         strings.TrimSpace(ro.Mileage),
		Concern:         strings.TrimSpace(ro.Concern),
		Diagnosis:       strings.TrimSpace(ro.Diagnosis),
		Repair:          strings.TrimSpace(ro.Repair),
		Parts:           strings.TrimSpace(ro.Parts),
		Time:            strings.TrimSpace(ro.Time),
		Extra:           strings.TrimSpace(ro.Extra),
		Comment:         strings.TrimSpace(ro.Comment),
		CausalPart:      strings.TrimSpace(ro.CausalPart),
		LaborOp:         strings.TrimSpace(ro.LaborOp),
		Model:           strings.TrimSpace(ro.Model),
		Mode:            strings.TrimSpace(ro.Mode),
		SectionMode:     strings.TrimSpace(ro.SectionMode),
		VehicleFeatures: strings.TrimSpace(ro.VehicleFeatures),
	}
}

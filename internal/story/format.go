package story

import (
	"fmt"
	"regexp"
	"strings"

	"dealerops.dev/storyline/internal/model"
	"dealerops.dev/storyline/internal/vehicle"
)

// Formatter assembles the final compliance story from a validated
// structured payload. All the work is deterministic: the same payload,
// request, and capabilities always produce the same text.
type Formatter struct {
	claims *ClaimFilter
}

func NewFormatter(claims *ClaimFilter) *Formatter {
	return &Formatter{claims: claims}
}

var (
	mileageTaggedRe = regexp.MustCompile(`(?i)\b(?:mileage|odometer|odo)\s*[:=]?\s*([\d,]+)`)
	mileageBareRe   = regexp.MustCompile(`(?i)\b([\d,]+)\s*km\b`)
	mileageDigitsRe = regexp.MustCompile(`\d[\d,]*`)
)

// Format builds the story text for a mode from a payload that already
// passed validation. Sections appear in a fixed order: narrative
// blocks, the mileage clause on the first block, the two metadata
// lines, then the optional post-repair line.
func (f *Formatter) Format(mode model.SectionMode, payload map[string]any, ro model.RepairOrder, caps vehicle.Capabilities) string {
	set := Sections(mode)

	field := func(key SectionKey) string {
		raw, _ := payload[string(key)].(string)
		return raw
	}

	clean := func(key SectionKey) string {
		text := StripLabel(key, field(key))
		text = f.claims.Apply(text, ro, caps)
		return ReplaceColons(CleanupSentence(text))
	}

	var blocks []string

	if set.Allows(SectionVerification) {
		block := clean(SectionVerification)
		if set.Allows(SectionDiagnosis) {
			block = joinSentence(block, clean(SectionDiagnosis))
		}
		blocks = append(blocks, block)
	}

	if set.Allows(SectionCause) {
		block := "Root cause - " + clean(SectionCause)
		if set.Allows(SectionRepairPerformed) {
			block = joinSentence(block, f.repairText(payload, ro, caps))
		}
		blocks = append(blocks, block)
	} else if set.Allows(SectionRepairPerformed) {
		blocks = append(blocks, f.repairText(payload, ro, caps))
	}

	blocks = appendMileage(blocks, ro)

	blocks = append(blocks,
		"Causal Part: "+metaValue(ro.CausalPart),
		"Labor Op: "+metaValue(ro.LaborOp),
	)

	if set.Allows(SectionPostRepairVerify) {
		if raw := strings.TrimSpace(field(SectionPostRepairVerify)); raw != "" && !IsPlaceholder(raw) {
			text := StripLabel(SectionPostRepairVerify, raw)
			text = f.claims.Apply(text, ro, caps)
			if text = ReplaceColons(cleanSentence(text, false)); text != "" {
				blocks = append(blocks, text)
			}
		}
	}

	return NormalizeStory(strings.Join(blocks, "\n"), ro)
}

// repairText runs the repair field through the claim filter and the
// workshop rewrite. The fallback placeholder is suppressed here because
// the rewrite supplies its own sentences when nothing survives.
func (f *Formatter) repairText(payload map[string]any, ro model.RepairOrder, caps vehicle.Capabilities) string {
	raw, _ := payload[string(SectionRepairPerformed)].(string)
	text := StripLabel(SectionRepairPerformed, raw)
	text = f.claims.Apply(text, ro, caps)
	text = cleanSentence(text, false)
	text = enforceWorkshop(text, ro)
	return ReplaceColons(text)
}

func metaValue(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "Not provided"
	}
	return trimmed
}

// appendMileage folds the mileage clause into the first content block,
// once, when a value is resolvable and the block does not already carry
// it.
func appendMileage(blocks []string, ro model.RepairOrder) []string {
	value := resolveMileage(ro)
	if value == "" {
		return blocks
	}
	for i, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if strings.Contains(block, value) {
			return blocks
		}
		trimmed := strings.TrimRight(block, " .!?")
		blocks[i] = trimmed + fmt.Sprintf(" at %s km.", value)
		return blocks
	}
	return blocks
}

// resolveMileage prefers the explicit mileage field and falls back to a
// tagged or bare km figure in the free-text extra notes.
func resolveMileage(ro model.RepairOrder) string {
	if m := mileageDigitsRe.FindString(ro.Mileage); m != "" {
		return strings.ReplaceAll(m, ",", "")
	}
	if sub := mileageTaggedRe.FindStringSubmatch(ro.Extra); sub != nil {
		return strings.ReplaceAll(sub[1], ",", "")
	}
	if sub := mileageBareRe.FindStringSubmatch(ro.Extra); sub != nil {
		return strings.ReplaceAll(sub[1], ",", "")
	}
	return ""
}

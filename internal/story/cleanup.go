package story

import (
	"regexp"
	"strings"
)

// FallbackText replaces a required section whose content was emptied by
// filtering. It is emitted after validation, so the placeholder check
// never sees it.
const FallbackText = "Not provided."

// Interpretive and hedging vocabulary. Warranty auditors read these as
// guesses, so they are rejected in required fields and scrubbed from
// everything else.
var hedgingRe = regexp.MustCompile(`(?i)\b(?:likely|possible|possibly|probably|suspect(?:ed)?|seem(?:s|ed)?|appear(?:s|ed)?|indicat(?:es|ed|ing)|potentially)\b`)

var (
	multiWhitespaceRe = regexp.MustCompile(`\s{2,}`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([.,;!?])`)

	durationPhraseRe = regexp.MustCompile(`(?i)\b(?:for|over|about|approximately|approx\.?)?\s*\d+(?:\.\d+)?\s*(?:hours?|hrs?|minutes?|mins?)\b`)
)

// Label prefixes models echo back in front of section content. Stripped
// only when followed by a colon, so ordinary prose starting with the
// same word is untouched.
var labelSynonyms = map[SectionKey][]string{
	SectionVerification:     {"verification", "verified concern", "concern verification"},
	SectionDiagnosis:        {"diagnosis", "diagnostics", "diag", "findings"},
	SectionCause:            {"root cause", "cause", "causal factor"},
	SectionRepairPerformed:  {"repair performed", "repair", "correction", "work performed"},
	SectionPostRepairVerify: {"post repair verification", "post-repair verification", "final verification", "verification after repair"},
}

// StripLabel removes an echoed section label prefix such as
// "Diagnosis: ..." from the start of the text.
func StripLabel(key SectionKey, text string) string {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)
	for _, syn := range labelSynonyms[key] {
		if !strings.HasPrefix(lower, syn) {
			continue
		}
		rest := strings.TrimLeft(t[len(syn):], " \t")
		if strings.HasPrefix(rest, ":") {
			return strings.TrimSpace(rest[1:])
		}
	}
	return t
}

// RemoveHedging strips interpretive words and tidies the leftover
// spacing.
func RemoveHedging(text string) string {
	out := hedgingRe.ReplaceAllString(text, "")
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	return collapseWhitespace(out)
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(multiWhitespaceRe.ReplaceAllString(text, " "))
}

// EnsureTerminal appends a period when the text does not already end in
// terminal punctuation.
func EnsureTerminal(text string) string {
	if text == "" {
		return text
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	}
	return text + "."
}

// CleanupSentence runs the per-field scrub: hedging removal, whitespace
// collapse, stray hyphen trim, terminal punctuation. An emptied field
// becomes the fallback string.
func CleanupSentence(text string) string {
	return cleanSentence(text, true)
}

func cleanSentence(text string, fallback bool) string {
	out := RemoveHedging(text)
	out = durationPhraseRe.ReplaceAllString(out, "")
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	out = collapseWhitespace(out)
	out = strings.Trim(out, " \t-")
	if strings.Trim(out, " \t-.,;:!?") == "" {
		if fallback {
			return FallbackText
		}
		return ""
	}
	return EnsureTerminal(out)
}

// ReplaceColons swaps remaining colons for a spaced hyphen so that
// narrative text never reads as a labelled section. Metadata lines are
// assembled after this runs and keep their colons.
func ReplaceColons(text string) string {
	if !strings.Contains(text, ":") {
		return text
	}
	out := strings.ReplaceAll(text, ":", " -")
	return collapseWhitespace(out)
}

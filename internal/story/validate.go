package story

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"dealerops.dev/storyline/internal/model"
)

var placeholderRe = regexp.MustCompile(`(?i)^(?:not\s+provided|n/?a|none\s+provided|unknown)\.?$`)

// IsPlaceholder reports whether a value is one of the filler strings
// models emit instead of leaving a field empty.
func IsPlaceholder(s string) bool {
	return placeholderRe.MatchString(strings.TrimSpace(s))
}

// ValidatePayload checks a decoded model payload against the mode's
// section set. Violations come back in a fixed order so retry prompts
// and failure details are stable: required-field problems first in
// section order, then type problems, then a single unexpected-keys
// entry.
func ValidatePayload(mode model.SectionMode, payload map[string]any) (bool, []string) {
	if payload == nil {
		return false, []string{"payload is not a JSON object"}
	}

	set := Sections(mode)
	var violations []string

	for _, key := range set.Required {
		raw, ok := payload[string(key)]
		if !ok {
			violations = append(violations, fmt.Sprintf("required field %q is missing or empty", key))
			continue
		}
		s, isString := raw.(string)
		if !isString {
			// Reported by the type pass below.
			continue
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			violations = append(violations, fmt.Sprintf("required field %q is missing or empty", key))
			continue
		}
		if placeholderRe.MatchString(trimmed) {
			violations = append(violations, fmt.Sprintf("required field %q contains placeholder text", key))
		}
	}

	for _, key := range set.Allowed() {
		raw, ok := payload[string(key)]
		if !ok {
			continue
		}
		if _, isString := raw.(string); !isString {
			violations = append(violations, fmt.Sprintf("field %q must be a string", key))
		}
	}

	var unexpected []string
	for key := range payload {
		if !set.Allows(SectionKey(key)) {
			unexpected = append(unexpected, key)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		violations = append(violations, fmt.Sprintf("unexpected keys: %s", strings.Join(unexpected, ", ")))
	}

	return len(violations) == 0, violations
}

// ScanVocabulary checks the mode's required fields for interpretive
// hedging words, which have no place in a compliance narrative. Each
// distinct word yields one violation, in order of first appearance.
func ScanVocabulary(mode model.SectionMode, payload map[string]any) []string {
	var sb strings.Builder
	for _, key := range Sections(mode).Required {
		if s, ok := payload[string(key)].(string); ok {
			sb.WriteString(s)
			sb.WriteString(" ")
		}
	}

	matches := hedgingRe.FindAllString(sb.String(), -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var violations []string
	for _, m := range matches {
		word := strings.ToLower(m)
		if seen[word] {
			continue
		}
		seen[word] = true
		violations = append(violations, fmt.Sprintf("forbidden word %q in required fields", word))
	}
	return violations
}

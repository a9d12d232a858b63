package story

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"dealerops.dev/storyline/internal/model"
	"dealerops.dev/storyline/internal/vehicle"
)

//go:embed claims.yaml
var defaultClaimRules []byte

const (
	gateThirdRow = "third_row"
	gateRearSeat = "rear_seat"
	gateMention  = "mention"
)

// Trucks that never carry a third row, whatever the trim data says.
const noThirdRowModel = "F-150"

// ClaimRule is one risky equipment claim and the gate that licenses it.
type ClaimRule struct {
	Phrase   string   `yaml:"phrase"`
	Synonyms []string `yaml:"synonyms"`
	Gate     string   `yaml:"gate"`
}

type claimRuleFile struct {
	Rules []ClaimRule `yaml:"rules"`
}

// ClaimFilter drops story sentences that assert equipment the vehicle
// may not have or the writer never mentioned.
type ClaimFilter struct {
	rules []ClaimRule
}

// NewClaimFilter loads the embedded rule set.
func NewClaimFilter() (*ClaimFilter, error) {
	return newClaimFilter(defaultClaimRules)
}

// NewClaimFilterFromFile loads rules from an override path, falling
// back to the embedded set when path is empty.
func NewClaimFilterFromFile(path string) (*ClaimFilter, error) {
	if path == "" {
		return NewClaimFilter()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading claim rules: %w", err)
	}
	return newClaimFilter(data)
}

func newClaimFilter(data []byte) (*ClaimFilter, error) {
	var file claimRuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing claim rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("claim rules: no rules defined")
	}
	for i, rule := range file.Rules {
		phrase := strings.ToLower(strings.TrimSpace(rule.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("claim rules: rule %d has no phrase", i)
		}
		file.Rules[i].Phrase = phrase
		for j, syn := range rule.Synonyms {
			file.Rules[i].Synonyms[j] = strings.ToLower(strings.TrimSpace(syn))
		}
		switch rule.Gate {
		case gateThirdRow, gateRearSeat, gateMention:
		default:
			return nil, fmt.Errorf("claim rules: rule %q has unknown gate %q", phrase, rule.Gate)
		}
	}
	return &ClaimFilter{rules: file.Rules}, nil
}

// Rules returns the loaded rule set.
func (f *ClaimFilter) Rules() []ClaimRule {
	return f.rules
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)

// Apply removes whole sentences containing unlicensed claims and
// rejoins the survivors with single spaces.
func (f *ClaimFilter) Apply(text string, ro model.RepairOrder, caps vehicle.Capabilities) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	mention := mentionText(ro)
	sentences := sentenceRe.FindAllString(text, -1)
	kept := make([]string, 0, len(sentences))

	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		if f.sentenceAllowed(strings.ToLower(trimmed), mention, caps) {
			kept = append(kept, trimmed)
		}
	}

	return strings.Join(kept, " ")
}

func (f *ClaimFilter) sentenceAllowed(lowerSentence, mention string, caps vehicle.Capabilities) bool {
	for _, rule := range f.rules {
		if !containsClaim(lowerSentence, rule) {
			continue
		}
		if !claimLicensed(rule, mention, caps) {
			return false
		}
	}
	return true
}

func containsClaim(lowerText string, rule ClaimRule) bool {
	if strings.Contains(lowerText, rule.Phrase) {
		return true
	}
	for _, syn := range rule.Synonyms {
		if strings.Contains(lowerText, strings.ToLower(syn)) {
			return true
		}
	}
	return false
}

func claimLicensed(rule ClaimRule, mention string, caps vehicle.Capabilities) bool {
	mentioned := containsClaim(mention, rule)
	switch rule.Gate {
	case gateThirdRow:
		if strings.EqualFold(caps.Model, noThirdRowModel) {
			return false
		}
		return caps.ThirdRowAllowed && mentioned
	case gateRearSeat:
		if caps.RegularCab {
			return false
		}
		return caps.RearSeatPossible && mentioned
	default:
		return mentioned
	}
}

// mentionText is the writer's own words, the only grounding a claim can
// have.
func mentionText(ro model.RepairOrder) string {
	parts := []string{ro.Concern, ro.Diagnosis, ro.Repair, ro.Comment, ro.Extra, ro.VehicleFeatures}
	return strings.ToLower(strings.Join(parts, " "))
}

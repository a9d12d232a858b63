package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"dealerops.dev/storyline/internal/model"
)

// Builder renders the model prompts for a repair order. The repair
// order is expected to be normalized already; the builder only selects
// and fills templates.
type Builder struct {
	store *Store
}

func NewBuilder(store *Store) *Builder {
	return &Builder{store: store}
}

type inputContext struct {
	JobType         string
	VIN             string
	Mileage         string
	Concern         string
	Diagnosis       string
	Repair          string
	Parts           string
	Time            string
	Extra           string
	VehicleFeatures string
}

// SystemPrompt is the fixed system message for every call.
func (b *Builder) SystemPrompt() string {
	return b.store.systemRules
}

// UserPrompt renders the free-text prompt: rule blocks, the optional
// writer instruction, then the inputs block.
func (b *Builder) UserPrompt(ro model.RepairOrder) (string, error) {
	return b.render(ro, b.store.outputRules)
}

// StructuredPrompt renders the prompt for the JSON-schema flow, which
// swaps the plain-text output rules for the structured ones.
func (b *Builder) StructuredPrompt(ro model.RepairOrder) (string, error) {
	return b.render(ro, b.store.structuredRules)
}

func (b *Builder) render(ro model.RepairOrder, outputRules string) (string, error) {
	jobType := ro.JobTypeValue()
	sectionMode := ro.SectionModeValue()

	rules := strings.TrimSpace(strings.Join([]string{
		b.store.baseRules,
		b.store.modeRules[jobType],
		outputRules,
	}, "\n"))

	if comment := strings.TrimSpace(ro.Comment); comment != "" {
		rules += "\nAdditional instruction (optional): " + comment +
			"\nStill obey ALL formatting rules above."
	}

	tmpl := b.store.sectionInputs[sectionMode]
	var inputs bytes.Buffer
	err := tmpl.Execute(&inputs, inputContext{
		JobType:         string(jobType),
		VIN:             strings.TrimSpace(ro.VIN),
		Mileage:         strings.TrimSpace(ro.Mileage),
		Concern:         strings.TrimSpace(ro.Concern),
		Diagnosis:       strings.TrimSpace(ro.Diagnosis),
		Repair:          strings.TrimSpace(ro.Repair),
		Parts:           strings.TrimSpace(ro.Parts),
		Time:            strings.TrimSpace(ro.Time),
		Extra:           strings.TrimSpace(ro.Extra),
		VehicleFeatures: strings.TrimSpace(ro.VehicleFeatures),
	})
	if err != nil {
		return "", fmt.Errorf("rendering inputs block: %w", err)
	}

	return strings.TrimSpace(rules + "\n\n" + inputs.String()), nil
}

// AppendCorrections extends a prompt with the violations from the
// previous attempt so the model can fix them on retry.
func AppendCorrections(userPrompt string, violations []string) string {
	if len(violations) == 0 {
		return userPrompt
	}
	var sb strings.Builder
	sb.WriteString(userPrompt)
	sb.WriteString("\n\nYour previous attempt broke these rules:\n")
	for _, v := range violations {
		sb.WriteString("- ")
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	sb.WriteString("Rewrite the story and obey ALL rules.")
	return sb.String()
}

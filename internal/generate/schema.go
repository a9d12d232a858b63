package generate

import (
	"dealerops.dev/storyline/common/llm"
	"dealerops.dev/storyline/internal/model"
)

type diagOnlyPayload struct {
	Verification string `json:"verification" jsonschema_description:"How the concern was verified, past tense"`
	Diagnosis    string `json:"diagnosis" jsonschema_description:"Diagnostic steps performed and what they showed"`
	Cause        string `json:"cause" jsonschema_description:"Root cause of the concern"`
}

type repairOnlyPayload struct {
	RepairPerformed        string `json:"repair_performed" jsonschema_description:"Repair steps performed, past tense"`
	PostRepairVerification string `json:"post_repair_verification" jsonschema_description:"How the repair was verified, empty when not verified"`
}

type diagRepairPayload struct {
	Verification           string `json:"verification" jsonschema_description:"How the concern was verified, past tense"`
	Diagnosis              string `json:"diagnosis" jsonschema_description:"Diagnostic steps performed and what they showed"`
	Cause                  string `json:"cause" jsonschema_description:"Root cause of the concern"`
	RepairPerformed        string `json:"repair_performed" jsonschema_description:"Repair steps performed, past tense"`
	PostRepairVerification string `json:"post_repair_verification" jsonschema_description:"How the repair was verified, empty when not verified"`
}

var (
	diagOnlySchema   = llm.GenerateSchema[diagOnlyPayload]()
	repairOnlySchema = llm.GenerateSchema[repairOnlyPayload]()
	diagRepairSchema = llm.GenerateSchema[diagRepairPayload]()
)

// schemaFor returns the response schema matching a section mode.
func schemaFor(mode model.SectionMode) (string, any) {
	switch mode {
	case model.SectionModeDiagOnly:
		return "diagnostic_story", diagOnlySchema
	case model.SectionModeRepairOnly:
		return "repair_story", repairOnlySchema
	default:
		return "diagnostic_repair_story", diagRepairSchema
	}
}

package model

import "strings"

// JobType selects the billing context the story is written for.
type JobType string

const (
	JobTypeWarranty JobType = "Warranty"
	JobTypeCP       JobType = "CP"
)

// NormalizeJobType maps raw client input to a supported job type.
// Anything other than an exact known value falls back to Warranty.
func NormalizeJobType(raw string) JobType {
	switch JobType(strings.TrimSpace(raw)) {
	case JobTypeWarranty, JobTypeCP:
		return JobType(strings.TrimSpace(raw))
	default:
		return JobTypeWarranty
	}
}

// SectionMode selects which structured sections are mandatory and the
// order they appear in the final story.
type SectionMode string

const (
	SectionModeDiagOnly   SectionMode = "diag_only"
	SectionModeRepairOnly SectionMode = "repair_only"
	SectionModeDiagRepair SectionMode = "diag_repair"
)

// NormalizeSectionMode maps raw client input to a supported section mode.
// Unknown or empty values fall back to diag_repair.
func NormalizeSectionMode(raw string) SectionMode {
	switch SectionMode(strings.TrimSpace(raw)) {
	case SectionModeDiagOnly, SectionModeRepairOnly, SectionModeDiagRepair:
		return SectionMode(strings.TrimSpace(raw))
	default:
		return SectionModeDiagRepair
	}
}

// IncludesDiagnosis reports whether the mode carries the verification,
// diagnosis and cause sections.
func (m SectionMode) IncludesDiagnosis() bool {
	return m == SectionModeDiagOnly || m == SectionModeDiagRepair
}

// IncludesRepair reports whether the mode carries the repair section.
func (m SectionMode) IncludesRepair() bool {
	return m == SectionModeRepairOnly || m == SectionModeDiagRepair
}

// RepairOrder is the inbound request field bag. Every field is optional
// free text; the section mode decides which ones are mandatory.
type RepairOrder struct {
	VIN             string `json:"vin"`
	Mileage         string `json:"mileage"`
	Concern         string `json:"concern"`
	Diagnosis       string `json:"diagnosis"`
	Repair          string `json:"repair"`
	Parts           string `json:"parts"`
	Time            string `json:"time"`
	Extra           string `json:"extra"`
	Comment         string `json:"comment"`
	CausalPart      string `json:"causalPart"`
	LaborOp         string `json:"laborOp"`
	Model           string `json:"model"`
	Mode            string `json:"mode"`
	SectionMode     string `json:"sectionMode"`
	VehicleFeatures string `json:"vehicle_features"`
}

// JobTypeValue returns the normalized job type for the order.
func (r RepairOrder) JobTypeValue() JobType {
	return NormalizeJobType(r.Mode)
}

// SectionModeValue returns the normalized section mode for the order.
func (r RepairOrder) SectionModeValue() SectionMode {
	return NormalizeSectionMode(r.SectionMode)
}

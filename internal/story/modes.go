package story

import "dealerops.dev/storyline/internal/model"

// SectionKey identifies one structured story section.
type SectionKey string

const (
	SectionVerification     SectionKey = "verification"
	SectionDiagnosis        SectionKey = "diagnosis"
	SectionCause            SectionKey = "cause"
	SectionRepairPerformed  SectionKey = "repair_performed"
	SectionPostRepairVerify SectionKey = "post_repair_verification"
)

// SectionSet describes the sections of one mode: required keys in
// emission order plus the optional trailing keys. The formatter and the
// validator both dispatch on this table instead of branching per mode.
type SectionSet struct {
	Required []SectionKey
	Optional []SectionKey
}

var sectionSets = map[model.SectionMode]SectionSet{
	model.SectionModeDiagOnly: {
		Required: []SectionKey{SectionVerification, SectionDiagnosis, SectionCause},
	},
	model.SectionModeRepairOnly: {
		Required: []SectionKey{SectionRepairPerformed},
		Optional: []SectionKey{SectionPostRepairVerify},
	},
	model.SectionModeDiagRepair: {
		Required: []SectionKey{SectionVerification, SectionDiagnosis, SectionCause, SectionRepairPerformed},
		Optional: []SectionKey{SectionPostRepairVerify},
	},
}

// Sections returns the descriptor for a mode. Unknown modes resolve the
// same way the request path does, to diag_repair.
func Sections(mode model.SectionMode) SectionSet {
	if set, ok := sectionSets[mode]; ok {
		return set
	}
	return sectionSets[model.SectionModeDiagRepair]
}

// Allowed returns every key the mode accepts, required first.
func (s SectionSet) Allowed() []SectionKey {
	keys := make([]SectionKey, 0, len(s.Required)+len(s.Optional))
	keys = append(keys, s.Required...)
	keys = append(keys, s.Optional...)
	return keys
}

// Allows reports whether the key belongs to the mode's section set.
func (s SectionSet) Allows(key SectionKey) bool {
	for _, k := range s.Allowed() {
		if k == key {
			return true
		}
	}
	return false
}

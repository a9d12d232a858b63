package prompt

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"dealerops.dev/storyline/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Store holds the prompt building blocks, loaded once at startup.
// Templates ship embedded in the binary; a directory override lets
// operators iterate on wording without a rebuild.
type Store struct {
	systemRules     string
	baseRules       string
	outputRules     string
	structuredRules string
	modeRules       map[model.JobType]string
	sectionInputs   map[model.SectionMode]*template.Template
}

// NewStore loads every template. When dir is non-empty all templates
// are read from it instead of the embedded set.
func NewStore(dir string) (*Store, error) {
	read := func(name string) (string, error) {
		var data []byte
		var err error
		if dir != "" {
			data, err = os.ReadFile(filepath.Join(dir, name))
		} else {
			data, err = templateFS.ReadFile("templates/" + name)
		}
		if err != nil {
			return "", fmt.Errorf("reading prompt template %s: %w", name, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	s := &Store{
		modeRules:     make(map[model.JobType]string, 2),
		sectionInputs: make(map[model.SectionMode]*template.Template, 3),
	}

	var err error
	if s.systemRules, err = read("system_rules.txt"); err != nil {
		return nil, err
	}
	if s.baseRules, err = read("base_rules.txt"); err != nil {
		return nil, err
	}
	if s.outputRules, err = read("output_rules.txt"); err != nil {
		return nil, err
	}
	if s.structuredRules, err = read("structured_rules.txt"); err != nil {
		return nil, err
	}

	for jobType, name := range map[model.JobType]string{
		model.JobTypeWarranty: "mode_warranty.txt",
		model.JobTypeCP:       "mode_cp.txt",
	} {
		text, err := read(name)
		if err != nil {
			return nil, err
		}
		s.modeRules[jobType] = text
	}

	for sectionMode, name := range map[model.SectionMode]string{
		model.SectionModeDiagOnly:   "section_diag_only.txt",
		model.SectionModeRepairOnly: "section_repair_only.txt",
		model.SectionModeDiagRepair: "section_diag_repair.txt",
	} {
		text, err := read(name)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing prompt template %s: %w", name, err)
		}
		s.sectionInputs[sectionMode] = tmpl
	}

	return s, nil
}

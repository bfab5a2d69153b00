// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"regexp"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/eyenote/internal/document"
	"github.com/pdiddy/eyenote/internal/section"
)

// Variable describes one finding to extract from notes.
type Variable struct {
	Name string `json:"name" yaml:"name"`

	// Pattern is matched case-insensitively against the view text; use
	// (?-i:...) for acronyms that collide with common words.
	Pattern string `json:"pattern" yaml:"pattern"`

	// View selects which sections are visible to Pattern.
	View document.Kind `json:"view" yaml:"view"`

	// Sections restricts matches to sections carrying one of these
	// categories (directly or through an enclosing section). Empty
	// means anywhere in the view.
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`

	// SkipNegation records matches without consulting the negation trees.
	SkipNegation bool `json:"skip_negation,omitempty" yaml:"skip_negation,omitempty"`

	re *regexp.Regexp
}

// Compile validates each variable and compiles its pattern.
func Compile(vars []Variable) ([]Variable, error) {
	out := make([]Variable, len(vars))
	seen := make(map[string]bool, len(vars))
	for i, v := range vars {
		if v.Name == "" {
			return nil, fmt.Errorf("variable %d: missing name", i)
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("variable %q: duplicate name", v.Name)
		}
		seen[v.Name] = true
		re, err := regexp.Compile(`(?i)` + v.Pattern)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		v.re = re
		out[i] = v
	}
	return out, nil
}

// LoadVariables reads a YAML list of variables from path and compiles it.
func LoadVariables(path string) ([]Variable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variables %s: %w", path, err)
	}
	var vars []Variable
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parsing variables %s: %w", path, err)
	}
	return Compile(vars)
}

// defaultVariables is a small retina and anterior segment set. History
// is hidden for findings that are commonly listed as past diagnoses.
var defaultVariables = []Variable{
	{Name: "drusen", Pattern: `\bdrusen\b`, View: document.NoHistory},
	{Name: "geographic_atrophy", Pattern: `\bgeographic\s+atrophy\b|(?-i:\bGA\b)`, View: document.NoHistory},
	{Name: "macular_edema", Pattern: `\b(?:cystoid\s+)?macular\s+edema\b|(?-i:\bC?ME\b|\bCSME\b)`, View: document.NoHistory},
	{Name: "subretinal_fluid", Pattern: `\bsub\s?retinal\s+fluid\b|\bSRF\b`, View: document.Full},
	{Name: "intraretinal_fluid", Pattern: `\bintra\s?retinal\s+fluid\b|\bIRF\b`, View: document.Full},
	{Name: "cnv", Pattern: `\bCNV(?:M)?\b|\bchoroidal\s+neovasculari[sz]ation\b`, View: document.NoHistory},
	{Name: "epiretinal_membrane", Pattern: `\bepiretinal\s+membrane\b|(?-i:\bERM\b)`, View: document.NoOCT},
	{Name: "retinal_detachment", Pattern: `\bretinal\s+detachment\b|\bRRD\b`, View: document.NoHistory},
	{Name: "cataract", Pattern: `\bcataract\b|(?-i:\bNSC?\b)`, View: document.NoHistory,
		Sections: []string{section.Exam, section.Lens, section.Assessment}},
	{Name: "glaucoma", Pattern: `\bglaucoma\b|\bPOAG\b`, View: document.NoHistory},
}

// DefaultVariables returns the built-in variables, compiled.
func DefaultVariables() []Variable {
	vars, err := Compile(defaultVariables)
	if err != nil {
		panic(err)
	}
	return vars
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"fmt"
	"os"
	"regexp"

	"go.yaml.in/yaml/v3"
)

// Section categories used by the default header table.
const (
	History        = "history"
	ChiefComplaint = "chief_complaint"
	Medications    = "medications"
	Allergies      = "allergies"
	Exam           = "exam"
	Lids           = "lids"
	Conjunctiva    = "conjunctiva"
	Cornea         = "cornea"
	AnteriorCh     = "anterior_chamber"
	Iris           = "iris"
	Lens           = "lens"
	Fundus         = "fundus"
	Vitreous       = "vitreous"
	OpticNerve     = "optic_nerve"
	Macula         = "macula"
	Fovea          = "fovea"
	Vessels        = "vessels"
	Periphery      = "periphery"
	OCT            = "oct"
	RightEye       = "od"
	LeftEye        = "os"
	BothEyes       = "ou"
	Assessment     = "assessment"
	Plan           = "plan"
	Diagnosis      = "diagnosis"
)

// HeaderSpec is the serializable form of a Header.
type HeaderSpec struct {
	Categories []string `json:"categories" yaml:"categories"`
	Level      Level    `json:"level" yaml:"level"`
	Pattern    string   `json:"pattern" yaml:"pattern"`
}

// headerPattern anchors names at a line start and requires a trailing
// colon, or a dash followed by a space.
func headerPattern(names string) string {
	return `(?im)(?:^|¶)[ \t]*(?:` + names + `)[ \t]*(?::|-(?:[ \t]|$))`
}

// DefaultSpecs is the built-in ophthalmology header table.
var DefaultSpecs = []HeaderSpec{
	{[]string{History}, Major, headerPattern(`history\s+of\s+present\s+illness|past\s+ocular\s+history|past\s+medical\s+history|family\s+history|ocular\s+history|history|hpi|poh|pmh`)},
	{[]string{ChiefComplaint}, Nested, headerPattern(`chief\s+complaint|reason\s+for\s+visit|cc`)},
	{[]string{Medications}, Nested, headerPattern(`current\s+medications|medications|meds`)},
	{[]string{Allergies}, Nested, headerPattern(`allergies`)},
	{[]string{Exam}, Major, headerPattern(`slit\s+lamp\s+exam(?:ination)?|external\s+exam|examination|exam|sle`)},
	{[]string{Lids}, Nested, headerPattern(`lids?\s*/\s*lashes|lids?`)},
	{[]string{Conjunctiva}, Nested, headerPattern(`conjunctiva\s*/\s*sclera|conjunctiva|conj`)},
	{[]string{Cornea}, Nested, headerPattern(`cornea`)},
	{[]string{AnteriorCh}, Nested, headerPattern(`anterior\s+chamber|a/c|ac`)},
	{[]string{Iris}, Nested, headerPattern(`iris`)},
	{[]string{Lens}, Nested, headerPattern(`lens`)},
	{[]string{Fundus}, Major, headerPattern(`dilated\s+fundus\s+exam(?:ination)?|fundus\s+exam(?:ination)?|fundus|dfe`)},
	{[]string{Vitreous}, Nested, headerPattern(`vitreous`)},
	{[]string{OpticNerve}, Nested, headerPattern(`optic\s+nerve|disc|c/d`)},
	{[]string{Macula, Fovea}, Nested, headerPattern(`macula\s*/\s*fovea`)},
	{[]string{Macula}, Nested, headerPattern(`macula`)},
	{[]string{Fovea}, Nested, headerPattern(`fovea`)},
	{[]string{Vessels}, Nested, headerPattern(`vessels|vasculature`)},
	{[]string{Periphery}, Nested, headerPattern(`periphery|peripheral\s+retina`)},
	{[]string{OCT}, Major, headerPattern(`optical\s+coherence\s+tomography|oct(?:\s+macula)?`)},
	{[]string{RightEye}, Major, headerPattern(`right\s+eye|o\.d\.|od`)},
	{[]string{LeftEye}, Major, headerPattern(`left\s+eye|o\.s\.|os`)},
	{[]string{BothEyes}, Major, headerPattern(`both\s+eyes|o\.u\.|ou`)},
	{[]string{Assessment, Plan}, Major, headerPattern(`assessment\s+(?:and|&)\s+plan|a\s*/\s*p`)},
	{[]string{Assessment}, Major, headerPattern(`assessment|impression`)},
	{[]string{Plan}, Major, headerPattern(`plan`)},
	{[]string{Diagnosis}, Nested, headerPattern(`diagnos[ie]s|dx`)},
}

// Compile turns specs into Headers.
func Compile(specs []HeaderSpec) ([]Header, error) {
	headers := make([]Header, 0, len(specs))
	for i, spec := range specs {
		if len(spec.Categories) == 0 {
			return nil, fmt.Errorf("header %d: no categories", i)
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("header %d (%s): %w", i, spec.Categories[0], err)
		}
		level := spec.Level
		if level != Major {
			level = Nested
		}
		headers = append(headers, Header{Categories: spec.Categories, Level: level, Pattern: re})
	}
	return headers, nil
}

// DefaultHeaders compiles DefaultSpecs.
func DefaultHeaders() []Header {
	headers, err := Compile(DefaultSpecs)
	if err != nil {
		panic(err)
	}
	return headers
}

// LoadHeaders reads a YAML list of HeaderSpec from path and compiles it.
func LoadHeaders(path string) ([]Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading headers %s: %w", path, err)
	}
	var specs []HeaderSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parsing headers %s: %w", path, err)
	}
	return Compile(specs)
}

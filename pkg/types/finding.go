// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/pdiddy/eyenote/internal/laterality"

// Finding is one variable matched in a note, annotated with the eye it
// applies to and any negation.
type Finding struct {
	// ID is stable across re-extraction of an unchanged note.
	ID string `json:"id" yaml:"id"`

	// NoteID identifies the source note.
	NoteID string `json:"note_id" yaml:"note_id"`

	// Variable is the name of the extracted variable (e.g. "drusen").
	Variable string `json:"variable" yaml:"variable"`

	// Value is the matched text.
	Value string `json:"value" yaml:"value"`

	// Laterality is the eye the finding applies to. UNKNOWN is a valid
	// classification, not an error.
	Laterality laterality.Laterality `json:"laterality" yaml:"laterality"`

	// Negation is the negating word or phrase; empty when affirmed.
	Negation string `json:"negation,omitempty" yaml:"negation,omitempty"`

	// Section is the innermost section the match falls in; empty outside
	// any section.
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Context is a short snippet around the match.
	Context string `json:"context" yaml:"context"`
}

// Negated reports whether the finding was negated.
func (f Finding) Negated() bool {
	return f.Negation != ""
}

// ExtractionResult holds the findings for one note.
type ExtractionResult struct {
	NoteID   string    `json:"note_id" yaml:"note_id"`
	Findings []Finding `json:"findings" yaml:"findings"`

	// Sections lists the section names found, in document order.
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`

	// Error records an extraction failure message. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// EyeSummary collapses a note's findings for one variable per eye.
type EyeSummary struct {
	NoteID   string `json:"note_id" yaml:"note_id"`
	Variable string `json:"variable" yaml:"variable"`

	// Right and Left are "yes", "no", or "" when the eye is not mentioned.
	Right string `json:"od" yaml:"od"`
	Left  string `json:"os" yaml:"os"`

	// Unknown is set when a finding could not be assigned to an eye.
	Unknown string `json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LateralityConfig tunes laterality resolution. Zero values take the
// locator defaults (prev_max 100, next_max 60, char_max 3,
// max_anchor_separators 4).
type LateralityConfig struct {
	// PrevMax is how far back (bytes) a cue may be and still apply.
	PrevMax int `json:"prev_max" yaml:"prev_max" mapstructure:"prev_max"`

	// NextMax is how far forward a cue may be and still apply.
	NextMax int `json:"next_max" yaml:"next_max" mapstructure:"next_max"`

	// CharMax caps weighted separators between a span and a lone following cue.
	CharMax int `json:"char_max" yaml:"char_max" mapstructure:"char_max"`

	// MaxAnchorSeparators caps weighted separators between a span and its "OD:" anchor.
	MaxAnchorSeparators int `json:"max_anchor_separators" yaml:"max_anchor_separators" mapstructure:"max_anchor_separators"`

	// SeparatorWeights overrides the weight of single separator characters
	// (e.g. {",": 1, ".": 2, "\n": 3}).
	SeparatorWeights map[string]int `json:"separator_weights,omitempty" yaml:"separator_weights,omitempty" mapstructure:"separator_weights"`

	// TokensFile is an optional YAML list of {pattern, laterality} tokens
	// replacing the built-in table.
	TokensFile string `json:"tokens_file,omitempty" yaml:"tokens_file,omitempty" mapstructure:"tokens_file"`
}

// NegationConfig controls the negation window and term trees.
type NegationConfig struct {
	// WordWindow is the number of words inspected on each side (default 2).
	WordWindow int `json:"word_window" yaml:"word_window" mapstructure:"word_window"`

	// CharWindow is the number of bytes read before tokenizing (default word_window*10).
	CharWindow int `json:"char_window" yaml:"char_window" mapstructure:"char_window"`

	// BoundaryChars end the window; each entry must be a single character.
	BoundaryChars []string `json:"boundary_chars,omitempty" yaml:"boundary_chars,omitempty" mapstructure:"boundary_chars"`

	// PreTermsFile and PostTermsFile are optional YAML term trees
	// replacing the built-in ones.
	PreTermsFile  string `json:"pre_terms_file,omitempty" yaml:"pre_terms_file,omitempty" mapstructure:"pre_terms_file"`
	PostTermsFile string `json:"post_terms_file,omitempty" yaml:"post_terms_file,omitempty" mapstructure:"post_terms_file"`
}

// DocumentConfig selects the header table used to segment notes.
type DocumentConfig struct {
	// HeadersFile is an optional YAML list of header specs replacing the
	// built-in ophthalmology table.
	HeadersFile string `json:"headers_file,omitempty" yaml:"headers_file,omitempty" mapstructure:"headers_file"`

	Laterality LateralityConfig `json:"laterality" yaml:"laterality" mapstructure:"laterality"`
}

// ExtractionConfig holds settings for the extract stage.
type ExtractionConfig struct {
	Document DocumentConfig `json:"document" yaml:"document" mapstructure:"document"`
	Negation NegationConfig `json:"negation" yaml:"negation" mapstructure:"negation"`

	// NotesDir holds the plain-text notes (<note-id>.txt).
	NotesDir string `json:"notes_dir" yaml:"notes_dir" mapstructure:"notes_dir"`

	// OutDir receives <note-id>-findings.yaml files.
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`

	// VariablesFile is an optional YAML list of variables replacing the
	// built-in set.
	VariablesFile string `json:"variables_file,omitempty" yaml:"variables_file,omitempty" mapstructure:"variables_file"`

	// Workers bounds how many notes are processed at once (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// StoreConfig holds settings for the findings database.
type StoreConfig struct {
	// DataDir is the base directory (contains findings/, index/).
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// Config groups all stage configurations, as read from eyenote.yaml.
type Config struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
}

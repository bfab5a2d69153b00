// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package laterality finds which eye a span of an ophthalmology note
// refers to. Cues such as "OD", "left eye" or "OD>OS" are collected once
// per scope; a Locator then resolves arbitrary spans against the nearby
// cues using punctuation between the span and each cue as a stand-in for
// document structure.
package laterality

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

// Laterality is the eye a finding applies to.
type Laterality int

const (
	Unknown Laterality = iota
	OD                 // right eye
	OS                 // left eye
	OU                 // both eyes
)

var names = [...]string{"UNKNOWN", "OD", "OS", "OU"}

func (l Laterality) String() string {
	if l < Unknown || l > OU {
		return fmt.Sprintf("Laterality(%d)", int(l))
	}
	return names[l]
}

// Parse reads a laterality name ("od", "OS", "unknown").
func Parse(s string) (Laterality, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OD":
		return OD, nil
	case "OS":
		return OS, nil
	case "OU":
		return OU, nil
	case "UNKNOWN", "":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown laterality %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Laterality) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Laterality) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Merge combines two lateralities: OD with OS gives OU, Unknown yields
// to the other side.
func Merge(a, b Laterality) Laterality {
	switch {
	case a == b:
		return a
	case a == Unknown:
		return b
	case b == Unknown:
		return a
	default:
		return OU
	}
}

// Covers reports whether l applies to eye (OD or OS).
func (l Laterality) Covers(eye Laterality) bool {
	return l == eye || (l == OU && (eye == OD || eye == OS))
}

// Token maps a regular expression fragment to a laterality.
type Token struct {
	Pattern    string     `json:"pattern" yaml:"pattern"`
	Laterality Laterality `json:"laterality" yaml:"laterality"`
}

// Cue is a laterality token found in text.
type Cue struct {
	Laterality Laterality
	Start      int
	End        int

	// SectionStart is set when the token is followed by a colon ("OD:"),
	// making it a heading for the text that follows.
	SectionStart bool
}

// DefaultTokens is the built-in token table. Longer and comparative
// forms come first so the alternation prefers them.
var DefaultTokens = []Token{
	{`(?:od|os|re|le|r|l)\s*[<>=]\s*(?:od|os|re|le|r|l)`, OU},
	{`o\.\s?u\.?`, OU},
	{`o\.\s?d\.?`, OD},
	{`o\.\s?s\.?`, OS},
	{`both\s+eyes`, OU},
	{`each\s+eye`, OU},
	{`bilateral(?:ly)?`, OU},
	{`b/l`, OU},
	{`ou`, OU},
	{`right\s+eye`, OD},
	{`rt\.?\s+eye`, OD},
	{`left\s+eye`, OS},
	{`lt\.?\s+eye`, OS},
	{`right`, OD},
	{`left`, OS},
	{`od`, OD},
	{`os`, OS},
	{`rt`, OD},
	{`lt`, OS},
	{`(?-i:RE|R)`, OD},
	{`(?-i:LE|L)`, OS},
}

// Table is a compiled token table: one alternation with a capture group
// per token.
type Table struct {
	re   *regexp.Regexp
	lats []Laterality
}

// NewTable compiles tokens into a Table.
func NewTable(tokens []Token) (*Table, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("laterality table: no tokens")
	}
	alts := make([]string, len(tokens))
	var lats []Laterality // indexed by capture group - 1
	for i, tok := range tokens {
		sub, err := regexp.Compile(tok.Pattern)
		if err != nil {
			return nil, fmt.Errorf("laterality token %q: %w", tok.Pattern, err)
		}
		alts[i] = "(" + tok.Pattern + ")"
		for j := 0; j < sub.NumSubexp()+1; j++ {
			lats = append(lats, tok.Laterality)
		}
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(alts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compiling laterality table: %w", err)
	}
	return &Table{re: re, lats: lats}, nil
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(DefaultTokens)
	if err != nil {
		panic(err)
	}
	return t
})

// DefaultTable returns the shared table compiled from DefaultTokens.
func DefaultTable() *Table {
	return defaultTable()
}

// LoadTable reads a YAML list of tokens from path and compiles it.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading laterality tokens %s: %w", path, err)
	}
	var tokens []Token
	if err := yaml.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parsing laterality tokens %s: %w", path, err)
	}
	return NewTable(tokens)
}

// Find returns the cues in text[start:end], ordered by offset. Offsets
// are relative to text.
func (t *Table) Find(text string, start, end int) []Cue {
	start, end = clamp(start, 0, len(text)), clamp(end, 0, len(text))
	var cues []Cue
	pos := start
	for pos < end {
		loc := t.re.FindStringSubmatchIndex(text[pos:end])
		if loc == nil {
			break
		}
		s, e := loc[0]+pos, loc[1]+pos
		if e == s || !bounded(text, s, e) {
			pos = nextRune(text, s)
			continue
		}
		cue := Cue{Start: s, End: e, SectionStart: colonFollows(text, e)}
		for g := 1; g < len(loc)/2; g++ {
			if loc[2*g] >= 0 {
				cue.Laterality = t.lats[g-1]
				break
			}
		}
		cues = append(cues, cue)
		pos = e
	}
	return cues
}

// FromName returns the side a section name encodes ("od", "left_eye"),
// or Unknown when it names none or both sides ambiguously.
func FromName(name string) Laterality {
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(name))
	lat := Unknown
	for _, c := range DefaultTable().Find(norm, 0, len(norm)) {
		lat = Merge(lat, c.Laterality)
	}
	return lat
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// bounded rejects tokens that are part of a longer word ("od" in "good")
// and single letters used as "R/O" (rule out).
func bounded(text string, s, e int) bool {
	if isWordByte(text[s]) && s > 0 && isWordByte(text[s-1]) {
		return false
	}
	if isWordByte(text[e-1]) && e < len(text) && isWordByte(text[e]) {
		return false
	}
	if e-s == 1 && e < len(text) && text[e] == '/' {
		return false
	}
	return true
}

func colonFollows(text string, e int) bool {
	for i := e; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t':
			continue
		case ':':
			return true
		}
		return false
	}
	return false
}

func nextRune(text string, i int) int {
	i++
	for i < len(text) && text[i]&0xC0 == 0x80 {
		i++
	}
	return i
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

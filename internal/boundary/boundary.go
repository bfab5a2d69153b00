// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package boundary extracts a bounded window of tokens on one side of an
// offset in clinical note text. The window never crosses a boundary
// character, so context from a previous sentence or field does not leak
// into negation and laterality decisions.
package boundary

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidArgument reports malformed scanner configuration.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultBoundaryChars are the characters that end a context window when
// the caller does not supply its own set.
var DefaultBoundaryChars = []string{":", ";", "."}

// Direction selects which side of the index a window is taken from.
type Direction int

const (
	Backward Direction = iota
	Forward
)

// Params controls how a window is cut.
type Params struct {
	// WordWindow is the number of tokens returned.
	WordWindow int

	// CharWindow is the number of bytes read before tokenizing.
	// Zero means WordWindow*10.
	CharWindow int

	// BoundaryChars each hold exactly one character. Nil uses
	// DefaultBoundaryChars; an empty non-nil slice disables splitting.
	BoundaryChars []string

	// BoundaryRegex is an additional boundary, unioned with BoundaryChars.
	BoundaryRegex *regexp.Regexp

	// SkipRegex matches are removed before splitting (e.g. a trailing "OU:").
	SkipRegex *regexp.Regexp

	// SkipNBoundaryChars keeps the Nth nearest segment instead of the
	// segment adjacent to the index.
	SkipNBoundaryChars int
}

// Validate checks that every boundary character is a single character.
func (p Params) Validate() error {
	if p.WordWindow < 0 || p.CharWindow < 0 || p.SkipNBoundaryChars < 0 {
		return fmt.Errorf("%w: negative window", ErrInvalidArgument)
	}
	for _, c := range p.BoundaryChars {
		if utf8.RuneCountInString(c) != 1 {
			return fmt.Errorf("%w: boundary character %q must be exactly one character", ErrInvalidArgument, c)
		}
	}
	return nil
}

func (p Params) charWindow() int {
	if p.CharWindow > 0 {
		return p.CharWindow
	}
	return p.WordWindow * 10
}

func (p Params) splitter() *regexp.Regexp {
	chars := p.BoundaryChars
	if chars == nil {
		chars = DefaultBoundaryChars
	}
	var alts []string
	if len(chars) > 0 {
		var cls strings.Builder
		for _, c := range chars {
			cls.WriteString(regexp.QuoteMeta(c))
		}
		alts = append(alts, "["+cls.String()+"]")
	}
	if p.BoundaryRegex != nil {
		alts = append(alts, "(?:"+p.BoundaryRegex.String()+")")
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// Before returns up to p.WordWindow tokens ending at index.
func Before(text string, index int, p Params) ([]string, error) {
	return Scan(text, index, Backward, p)
}

// After returns up to p.WordWindow tokens starting at index.
func After(text string, index int, p Params) ([]string, error) {
	return Scan(text, index, Forward, p)
}

// Scan cuts the window on the requested side of index and tokenizes it.
func Scan(text string, index int, dir Direction, p Params) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.WordWindow == 0 {
		return nil, nil
	}
	index = clamp(index, 0, len(text))

	var context string
	if dir == Backward {
		start := runeStart(text, clamp(index-p.charWindow(), 0, index))
		context = text[start:index]
	} else {
		end := runeStart(text, clamp(index+p.charWindow(), index, len(text)))
		context = text[index:end]
	}

	if p.SkipRegex != nil {
		context = p.SkipRegex.ReplaceAllString(context, "")
	}

	if re := p.splitter(); re != nil {
		context = pickSegment(re.Split(context, -1), dir, p.SkipNBoundaryChars)
	}

	tokens := Tokenize(context)
	if len(tokens) <= p.WordWindow {
		return tokens, nil
	}
	if dir == Backward {
		return tokens[len(tokens)-p.WordWindow:], nil
	}
	return tokens[:p.WordWindow], nil
}

// pickSegment returns the segment adjacent to the index, or the Nth
// nearest one when skip > 0.
func pickSegment(segments []string, dir Direction, skip int) string {
	if skip >= len(segments) {
		return ""
	}
	if dir == Backward {
		return segments[len(segments)-1-skip]
	}
	return segments[skip]
}

var (
	withoutRe  = regexp.MustCompile(`w/o(?:ut)?\b`)
	minusRe    = regexp.MustCompile(`\(\s*-\s*\)`)
	bareDashRe = regexp.MustCompile(`(^|[^\w-])-([a-z])`)
)

// Normalize lowercases s and rewrites shorthand negations into words.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = withoutRe.ReplaceAllString(s, "without")
	s = minusRe.ReplaceAllString(s, " no ")
	s = bareDashRe.ReplaceAllString(s, "$1 no $2")
	return s
}

// Tokenize normalizes s and splits it on whitespace. Punctuation
// surrounding a token is dropped.
func Tokenize(s string) []string {
	var tokens []string
	for _, f := range strings.Fields(Normalize(s)) {
		f = strings.Trim(f, `,()[]{}"'!?*`)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
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

// runeStart moves i forward to the start of a rune.
func runeStart(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package section splits clinical note text into named sections from a
// table of header patterns. Notes carry no markup, so levels and extents
// are inferred from line layout: a header alone on its line opens a major
// section that owns the nested headers below it, and two blank lines end
// any section.
package section

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/eyenote/internal/laterality"
)

// Level is the nesting level of a section.
type Level int

const (
	Major  Level = 1
	Nested Level = 2
)

// Span is a half-open byte range into the note text.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the span length.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool { return s.Start <= offset && offset < s.End }

// Header is one entry of the header table. A header naming several
// categories ("Macula/Fovea:") produces one section per category on
// Expand.
type Header struct {
	Categories []string
	Level      Level
	Pattern    *regexp.Regexp
}

// Section is a named span of note text.
type Section struct {
	Categories []string
	Level      Level
	Header     Span
	Content    Span
	Text       string
	Lines      []string

	// Children are the nested sections inside a major section.
	Children []*Section

	note    string
	table   *laterality.Table
	opts    laterality.Options
	parent  *Section
	locator *laterality.Locator
}

// Name returns the first category.
func (s *Section) Name() string {
	if len(s.Categories) == 0 {
		return ""
	}
	return s.Categories[0]
}

// Is reports whether the section carries category.
func (s *Section) Is(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Start is the offset of the header.
func (s *Section) Start() int { return s.Header.Start }

// End is the offset after the last content byte, or after the header
// when the section has no content.
func (s *Section) End() int {
	if s.Content.End > s.Header.End {
		return s.Content.End
	}
	return s.Header.End
}

// Locator returns the laterality locator over the section content. Its
// default is the side the section name encodes ("right eye"), or else
// the side of the nearest enclosing section that names one.
func (s *Section) Locator() *laterality.Locator {
	if s.locator == nil {
		// Sections not produced by a Segmenter get a fresh, uncached one.
		return s.newLocator()
	}
	return s.locator
}

// Parent returns the enclosing section, or nil for a top-level one.
func (s *Section) Parent() *Section { return s.parent }

// Side returns the eye named by the section or its nearest enclosing
// section, or Unknown.
func (s *Section) Side() laterality.Laterality {
	for sec := s; sec != nil; sec = sec.parent {
		side := laterality.Unknown
		for _, c := range sec.Categories {
			side = laterality.Merge(side, laterality.FromName(c))
		}
		if side != laterality.Unknown {
			return side
		}
	}
	return laterality.Unknown
}

func (s *Section) newLocator() *laterality.Locator {
	opts := s.opts
	if side := s.Side(); side != laterality.Unknown {
		opts.Default = side
	}
	return laterality.NewLocator(s.note, s.Content.Start, s.Content.End, s.table, opts)
}

// Expand returns one section per category, sharing offsets and text.
func (s *Section) Expand() []*Section {
	if len(s.Categories) <= 1 {
		return []*Section{s}
	}
	out := make([]*Section, len(s.Categories))
	for i, c := range s.Categories {
		cp := *s
		cp.Categories = []string{c}
		if s.locator != nil {
			cp.locator = cp.newLocator()
		}
		out[i] = &cp
	}
	return out
}

// Segmenter applies a header table to note text.
type Segmenter struct {
	headers []Header
	table   *laterality.Table
	opts    laterality.Options
}

// NewSegmenter returns a Segmenter. A nil table uses the default
// laterality table; opts configure each section's Locator.
func NewSegmenter(headers []Header, table *laterality.Table, opts laterality.Options) *Segmenter {
	return &Segmenter{headers: headers, table: table, opts: opts}
}

type candidate struct {
	categories []string
	level      Level
	span       Span
	order      int
}

// Segment finds the sections of text. A text with no header matches
// yields an empty Segmentation; callers then treat the text as a whole.
func (g *Segmenter) Segment(text string) *Segmentation {
	cands := g.collect(text)
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].span.Start != cands[j].span.Start {
			return cands[i].span.Start < cands[j].span.Start
		}
		if cands[i].span.End != cands[j].span.End {
			return cands[i].span.End > cands[j].span.End
		}
		return cands[i].order < cands[j].order
	})
	kept := dropOverlaps(cands)
	seg := &Segmentation{Text: text, Sections: g.grow(text, kept)}

	// A Segmentation is read-only once returned.
	for _, s := range seg.All() {
		s.locator = s.newLocator()
	}
	return seg
}

func (g *Segmenter) collect(text string) []candidate {
	var cands []candidate
	for hi, h := range g.headers {
		if h.Pattern == nil {
			continue
		}
		for _, loc := range h.Pattern.FindAllStringIndex(text, -1) {
			if loc[1] == loc[0] {
				continue
			}
			cands = append(cands, candidate{
				categories: append([]string(nil), h.Categories...),
				level:      headerLevel(text, loc[1], h.Level),
				span:       Span{loc[0], loc[1]},
				order:      hi,
			})
		}
	}
	return cands
}

// headerLevel decides the level of a header ending at end. A header
// followed by text on its own line is never major; one alone on its line
// with content at most one blank line below is major.
func headerLevel(text string, end int, configured Level) Level {
	lineEnd := nextBreak(text, end)
	if strings.TrimSpace(text[end:lineEnd]) != "" {
		return Nested
	}
	blanks := 0
	pos := lineEnd
	for pos < len(text) {
		pos += breakWidth(text, pos)
		next := nextBreak(text, pos)
		if strings.TrimSpace(text[pos:next]) != "" {
			return Major
		}
		blanks++
		if blanks > 1 {
			break
		}
		pos = next
	}
	return configured
}

// dropOverlaps keeps candidates left to right, discarding any that start
// inside the previously kept header. Identical spans merge categories.
func dropOverlaps(cands []candidate) []candidate {
	var kept []candidate
	for _, c := range cands {
		if n := len(kept); n > 0 {
			last := &kept[n-1]
			if c.span == last.span {
				for _, cat := range c.categories {
					if !contains(last.categories, cat) {
						last.categories = append(last.categories, cat)
					}
				}
				continue
			}
			if c.span.Start < last.span.End {
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

// grow assigns content to each kept header and nests minor sections
// inside the major section they fall in.
func (g *Segmenter) grow(text string, kept []candidate) []*Section {
	var (
		top    []*Section
		parent *Section
		limit  int // end of parent's raw extent
	)
	for i, c := range kept {
		end := len(text)
		for j := i + 1; j < len(kept); j++ {
			if c.level == Nested || kept[j].level == Major {
				end = kept[j].span.Start
				break
			}
		}
		end = stopAtGap(text, c.span.End, end)
		if c.level == Nested && parent != nil && c.span.Start < limit {
			end = max(min(end, limit), c.span.End)
		}

		s := &Section{
			Categories: c.categories,
			Level:      c.level,
			Header:     c.span,
			note:       text,
			table:      g.table,
			opts:       g.opts,
		}

		if c.level == Nested && parent != nil && c.span.Start < limit {
			s.setContent(text, c.span.End, end)
			s.parent = parent
			parent.Children = append(parent.Children, s)
			continue
		}

		s.setContent(text, c.span.End, end)
		top = append(top, s)
		if c.level == Major {
			parent, limit = s, end
		} else {
			parent = nil
		}
	}
	return top
}

func (s *Section) setContent(text string, start, end int) {
	for start < end {
		r, w := decodeRune(text, start)
		if !isSpace(r) {
			break
		}
		start += w
	}
	for end > start {
		r, w := decodeLastRune(text, end)
		if !isSpace(r) {
			break
		}
		end -= w
	}
	s.Content = Span{start, end}
	s.Text = text[start:end]
	s.Lines = splitLines(s.Text)
}

var gapRe = regexp.MustCompile(`(?:\r?\n|¶)[ \t\r]*(?:\r?\n|¶)[ \t\r]*(?:\r?\n|¶)`)

// stopAtGap returns the offset of the first run of two blank lines in
// text[start:end], or end.
func stopAtGap(text string, start, end int) int {
	if loc := gapRe.FindStringIndex(text[start:end]); loc != nil {
		return start + loc[0]
	}
	return end
}

// Segmentation is the result of segmenting one text.
type Segmentation struct {
	Text string

	// Sections are the top-level sections in offset order. They never
	// overlap; nested sections hang off their major section's Children.
	Sections []*Section
}

// Empty reports whether no header matched.
func (g *Segmentation) Empty() bool {
	return len(g.Sections) == 0
}

// All returns every section, parents before their children, in offset
// order.
func (g *Segmentation) All() []*Section {
	var out []*Section
	var walk func([]*Section)
	walk = func(ss []*Section) {
		for _, s := range ss {
			out = append(out, s)
			walk(s.Children)
		}
	}
	walk(g.Sections)
	return out
}

// Expanded returns All with multi-category sections fanned out.
func (g *Segmentation) Expanded() []*Section {
	var out []*Section
	for _, s := range g.All() {
		out = append(out, s.Expand()...)
	}
	return out
}

// Find returns the sections carrying category.
func (g *Segmentation) Find(category string) []*Section {
	var out []*Section
	for _, s := range g.All() {
		if s.Is(category) {
			out = append(out, s)
		}
	}
	return out
}

// At returns the innermost section whose content contains offset, and
// its chain of enclosing sections (outermost first). It returns nil when
// offset is in no section.
func (g *Segmentation) At(offset int) (*Section, []*Section) {
	var chain []*Section
	ss := g.Sections
	var found *Section
	for {
		var next *Section
		for _, s := range ss {
			if s.Content.Contains(offset) {
				next = s
				break
			}
		}
		if next == nil {
			return found, chain
		}
		if found != nil {
			chain = append(chain, found)
		}
		found = next
		ss = next.Children
	}
}

// Extra returns spans of non-blank text that no top-level section owns:
// lines before the first header and text after a section's blank-line
// gap.
func (g *Segmentation) Extra() []Span {
	var out []Span
	pos := 0
	add := func(start, end int) {
		t := g.Text[start:end]
		trimmedStart := start + (len(t) - len(strings.TrimLeftFunc(t, isSpace)))
		trimmedEnd := start + len(strings.TrimRightFunc(t, isSpace))
		if trimmedEnd > trimmedStart {
			out = append(out, Span{trimmedStart, trimmedEnd})
		}
	}
	for _, s := range g.Sections {
		if s.Start() > pos {
			add(pos, s.Start())
		}
		if s.End() > pos {
			pos = s.End()
		}
	}
	if pos < len(g.Text) {
		add(pos, len(g.Text))
	}
	return out
}

func isSpace(r rune) bool {
	return r == '¶' || unicode.IsSpace(r)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

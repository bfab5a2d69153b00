// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document owns the text of one note and the views derived from
// it. A view blanks out whole sections (history, OCT) so that matches
// inside them are not seen, without moving any offset: spans found in
// any view index the original text.
package document

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pdiddy/eyenote/internal/laterality"
	"github.com/pdiddy/eyenote/internal/section"
)

// Kind selects a view of a document.
type Kind int

const (
	// Full is the unmodified note.
	Full Kind = iota
	// NoHistory blanks history sections.
	NoHistory
	// NoOCT blanks OCT sections.
	NoOCT

	numKinds
)

var kindNames = [...]string{"full", "no_history", "no_oct"}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind parses a view name. The empty string is Full.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return Full, nil
	}
	for i, n := range kindNames {
		if strings.EqualFold(s, n) {
			return Kind(i), nil
		}
	}
	return Full, fmt.Errorf("unknown view %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// removed lists the categories each view blanks.
var removed = [numKinds][]string{
	NoHistory: {section.History},
	NoOCT:     {section.OCT},
}

// Option configures a Document.
type Option func(*Document)

// WithID sets the note identifier.
func WithID(id string) Option {
	return func(d *Document) { d.id = id }
}

// WithHeaders replaces the default header table.
func WithHeaders(headers []section.Header) Option {
	return func(d *Document) { d.headers = headers }
}

// WithTable replaces the default laterality token table.
func WithTable(t *laterality.Table) Option {
	return func(d *Document) { d.table = t }
}

// WithLocatorOptions sets the thresholds used by every Locator.
func WithLocatorOptions(opts laterality.Options) Option {
	return func(d *Document) { d.opts = opts }
}

// Document is one note. Views and everything derived from them are built
// on first use and never change afterwards. A Document may be shared
// between goroutines.
type Document struct {
	id      string
	text    string
	headers []section.Header
	table   *laterality.Table
	opts    laterality.Options

	once  [numKinds]sync.Once
	views [numKinds]*View
}

// New returns a Document over text.
func New(text string, opts ...Option) *Document {
	d := &Document{text: text}
	for _, o := range opts {
		o(d)
	}
	if d.headers == nil {
		d.headers = section.DefaultHeaders()
	}
	if d.table == nil {
		d.table = laterality.DefaultTable()
	}
	return d
}

// ID returns the note identifier, if one was set.
func (d *Document) ID() string { return d.id }

// Text returns the original note text.
func (d *Document) Text() string { return d.text }

// View returns the view of the given kind. An out of range kind returns
// the Full view.
func (d *Document) View(k Kind) *View {
	if k < 0 || k >= numKinds {
		k = Full
	}
	d.once[k].Do(func() {
		text := d.text
		if len(removed[k]) > 0 {
			text = blank(d.text, d.View(Full).Sections(), removed[k])
		}
		d.views[k] = &View{kind: k, text: text, doc: d}
	})
	return d.views[k]
}

// blank overwrites the sections carrying any of categories with spaces.
// Line breaks survive so the layout of the rest of the note, and every
// offset, is unchanged.
func blank(text string, seg *section.Segmentation, categories []string) string {
	var spans []section.Span
	for _, s := range seg.All() {
		for _, c := range categories {
			if s.Is(c) {
				spans = append(spans, section.Span{Start: s.Start(), End: s.End()})
				break
			}
		}
	}
	if len(spans) == 0 {
		return text
	}
	b := []byte(text)
	for _, sp := range spans {
		for i := sp.Start; i < sp.End; {
			r, w := utf8.DecodeRuneInString(text[i:])
			if r != '\n' && r != '\r' && r != '¶' {
				for j := i; j < i+w; j++ {
					b[j] = ' '
				}
			}
			i += w
		}
	}
	return string(b)
}

// View is the text of a document with some sections blanked.
type View struct {
	kind Kind
	text string
	doc  *Document

	segOnce sync.Once
	seg     *section.Segmentation

	locOnce sync.Once
	loc     *laterality.Locator
}

// Kind returns the view kind.
func (v *View) Kind() Kind { return v.kind }

// Text returns the view text. It has the same length as the note.
func (v *View) Text() string { return v.text }

// Sections segments the view text.
func (v *View) Sections() *section.Segmentation {
	v.segOnce.Do(func() {
		g := section.NewSegmenter(v.doc.headers, v.doc.table, v.doc.opts)
		v.seg = g.Segment(v.text)
	})
	return v.seg
}

// Locator returns a Locator over the whole view text, used for spans
// that fall outside every section.
func (v *View) Locator() *laterality.Locator {
	v.locOnce.Do(func() {
		v.loc = laterality.NewLocator(v.text, 0, len(v.text), v.doc.table, v.doc.opts)
	})
	return v.loc
}

// Scope is a region of a view with its own Locator.
type Scope struct {
	// Section is nil for the whole-text scope.
	Section *section.Section

	// Enclosing are the sections containing Section, outermost first.
	Enclosing []*section.Section

	Span    section.Span
	Locator *laterality.Locator
}

// Name returns the section name, or "" for the whole-text scope.
func (s Scope) Name() string {
	if s.Section == nil {
		return ""
	}
	return s.Section.Name()
}

// Is reports whether the scope's section or any enclosing section
// carries category.
func (s Scope) Is(category string) bool {
	if s.Section == nil {
		return false
	}
	if s.Section.Is(category) {
		return true
	}
	for _, e := range s.Enclosing {
		if e.Is(category) {
			return true
		}
	}
	return false
}

// Scopes returns one scope per section, parents before children. A view
// without sections has a single whole-text scope.
func (v *View) Scopes() []Scope {
	seg := v.Sections()
	if seg.Empty() {
		return []Scope{v.whole()}
	}
	var out []Scope
	var walk func(ss []*section.Section, chain []*section.Section)
	walk = func(ss []*section.Section, chain []*section.Section) {
		for _, s := range ss {
			out = append(out, Scope{
				Section:   s,
				Enclosing: chain,
				Span:      s.Content,
				Locator:   s.Locator(),
			})
			walk(s.Children, append(chain[:len(chain):len(chain)], s))
		}
	}
	walk(seg.Sections, nil)
	return out
}

// At returns the innermost scope containing offset: a section, or the
// whole-text scope when offset lies outside every section.
func (v *View) At(offset int) Scope {
	s, chain := v.Sections().At(offset)
	if s == nil {
		return v.whole()
	}
	return Scope{Section: s, Enclosing: chain, Span: s.Content, Locator: s.Locator()}
}

func (v *View) whole() Scope {
	return Scope{Span: section.Span{Start: 0, End: len(v.text)}, Locator: v.Locator()}
}

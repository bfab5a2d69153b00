// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package laterality

import (
	"sort"
	"strings"
)

// Tuned against dictated notes; the asymmetry between PrevMax and
// NextMax is intentional pending clarification of authoring conventions.
const (
	DefaultPrevMax             = 100
	DefaultNextMax             = 60
	DefaultCharMax             = 3
	DefaultMaxAnchorSeparators = 4
)

// DefaultSeparatorWeights weighs the punctuation between a span and a
// cue. Line starts count most.
var DefaultSeparatorWeights = map[rune]int{
	'\n': 3,
	'¶':  3,
	'.':  2,
	',':  1,
}

// Options tune a Locator. Zero numeric fields and a nil weight map take
// the defaults above.
type Options struct {
	// PrevMax is how far back (bytes) a cue may be and still apply.
	PrevMax int

	// NextMax is how far forward a cue may be and still apply.
	NextMax int

	// CharMax caps the weighted separators between a span and a lone
	// following cue.
	CharMax int

	// MaxAnchorSeparators caps the weighted separators between a span
	// and its section-start anchor ("OD:").
	MaxAnchorSeparators int

	SeparatorWeights map[rune]int

	// Default is returned when no cue is in range.
	Default Laterality
}

// DefaultOptions returns Options with every threshold set.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.PrevMax <= 0 {
		o.PrevMax = DefaultPrevMax
	}
	if o.NextMax <= 0 {
		o.NextMax = DefaultNextMax
	}
	if o.CharMax <= 0 {
		o.CharMax = DefaultCharMax
	}
	if o.MaxAnchorSeparators <= 0 {
		o.MaxAnchorSeparators = DefaultMaxAnchorSeparators
	}
	if o.SeparatorWeights == nil {
		o.SeparatorWeights = DefaultSeparatorWeights
	}
	return o
}

// Locator answers "which eye?" for spans of one scope of text. It is
// immutable once built.
type Locator struct {
	text string
	cues []Cue
	opts Options
}

// NewLocator collects the cues in text[start:end]. Offsets stay relative
// to the full text, so spans from any view of the same note can be
// queried. A nil table uses DefaultTable.
func NewLocator(text string, start, end int, table *Table, opts Options) *Locator {
	if table == nil {
		table = DefaultTable()
	}
	cues := table.Find(text, start, end)
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].Start < cues[j].Start })
	return &Locator{text: text, cues: cues, opts: opts.withDefaults()}
}

// Locate builds a Locator over all of text with the default table.
func Locate(text string, opts Options) *Locator {
	return NewLocator(text, 0, len(text), nil, opts)
}

// Cues returns the cues in offset order.
func (l *Locator) Cues() []Cue {
	return l.cues
}

// Default returns the laterality used when no cue is in range.
func (l *Locator) Default() Laterality {
	return l.opts.Default
}

// GetByIndex resolves the laterality of text[start:end].
func (l *Locator) GetByIndex(start, end int) Laterality {
	return l.GetByIndexOr(start, end, l.opts.Default)
}

type candidate struct {
	lat    Laterality
	weight int
	dist   int
}

func better(a, b candidate) bool {
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	return a.dist < b.dist
}

// GetByIndexOr is GetByIndex with def in place of the Locator default.
//
// Resolution order:
//  1. a cue inside the span decides directly;
//  2. the nearest preceding "OD:"-style cue anchors the span when within
//     PrevMax and at most one other colon away;
//  3. a plain cue before (after the anchor) or after the span competes
//     with the anchor on weighted separators, then distance;
//  4. an anchor that wins with more than MaxAnchorSeparators is Unknown;
//  5. without an anchor the nearer cue wins, except a lone following cue
//     must be within CharMax separators;
//  6. with no cue in range, def.
func (l *Locator) GetByIndexOr(start, end int, def Laterality) Laterality {
	if end < start {
		start, end = end, start
	}
	start, end = clamp(start, 0, len(l.text)), clamp(end, 0, len(l.text))

	// First cue ending after start.
	i := sort.Search(len(l.cues), func(k int) bool { return l.cues[k].End > start })

	inside, found := Unknown, false
	j := i
	for ; j < len(l.cues) && l.cues[j].Start < end; j++ {
		if l.cues[j].Start >= start && l.cues[j].End <= end {
			inside = Merge(inside, l.cues[j].Laterality)
			found = true
		}
	}
	if found {
		return inside
	}

	var anchor, prev, next *candidate

	for k := i - 1; k >= 0; k-- {
		c := l.cues[k]
		if start-c.End > l.opts.PrevMax {
			break
		}
		between := l.text[c.End:start]
		if c.SectionStart {
			if strings.Count(between, ":")-1 <= 1 {
				anchor = &candidate{c.Laterality, l.weigh(between), start - c.End}
			}
			break
		}
		if prev == nil {
			prev = &candidate{c.Laterality, l.weigh(between), start - c.End}
		}
	}

	if j < len(l.cues) {
		c := l.cues[j]
		if !c.SectionStart && c.Start-end <= l.opts.NextMax {
			next = &candidate{c.Laterality, l.weigh(l.text[end:c.Start]), c.Start - end}
		}
	}

	if anchor != nil {
		best := *anchor
		fromAnchor := true
		for _, c := range []*candidate{prev, next} {
			if c != nil && better(*c, best) {
				best, fromAnchor = *c, false
			}
		}
		if fromAnchor && best.weight > l.opts.MaxAnchorSeparators {
			return Unknown
		}
		return best.lat
	}

	switch {
	case prev != nil && next != nil:
		if better(*next, *prev) {
			return next.lat
		}
		return prev.lat
	case prev != nil:
		return prev.lat
	case next != nil:
		if next.weight <= l.opts.CharMax {
			return next.lat
		}
		return Unknown
	}
	return def
}

// Separators returns the weighted separator count of s.
func (l *Locator) Separators(s string) int {
	return l.weigh(s)
}

func (l *Locator) weigh(s string) int {
	n := 0
	for _, r := range s {
		n += l.opts.SeparatorWeights[r]
	}
	return n
}

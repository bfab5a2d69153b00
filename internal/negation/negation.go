// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package negation decides whether a span of clinical text is negated by
// walking the words around it against a tree of negation phrases and
// their exceptions ("no" negates, "no new" does not).
package negation

import (
	"strings"

	"github.com/pdiddy/eyenote/internal/boundary"
)

// Node is either a Leaf or a *Branch.
type Node interface {
	node()
}

// Leaf ends a phrase: true negates, false is an exception that
// suppresses negation.
type Leaf bool

func (Leaf) node() {}

// Branch continues a phrase. Default applies when none of the children
// appear in the rest of the window.
type Branch struct {
	Children map[string]Node
	Default  bool
}

func (*Branch) node() {}

// Walk scans tokens left to right. The first token that is a key of the
// branch decides the outcome by recursing into its child with the tokens
// that follow it. It returns the matched phrase and whether it negates.
func Walk(n Node, tokens []string) (string, bool) {
	switch n := n.(type) {
	case Leaf:
		return "", bool(n)
	case *Branch:
		for i, tok := range tokens {
			child, ok := n.Children[tok]
			if !ok {
				continue
			}
			rest, negated := Walk(child, tokens[i+1:])
			if !negated {
				return "", false
			}
			if rest == "" {
				return tok, true
			}
			return tok + " " + rest, true
		}
		return "", n.Default
	}
	return "", false
}

// IsNegated reports whether the words before index negate it. It returns
// the negating phrase when they do.
func IsNegated(text string, index int, tree Node, p boundary.Params) (string, bool, error) {
	tokens, err := boundary.Before(text, index, p)
	if err != nil {
		return "", false, err
	}
	word, negated := Walk(tree, tokens)
	return word, negated, nil
}

// IsPostNegated is the forward counterpart of IsNegated: it looks at the
// words following index ("drusen absent").
func IsPostNegated(text string, index int, tree Node, p boundary.Params) (string, bool, error) {
	tokens, err := boundary.After(text, index, p)
	if err != nil {
		return "", false, err
	}
	word, negated := Walk(tree, tokens)
	return word, negated, nil
}

func exceptions(words ...string) *Branch {
	b := &Branch{Children: make(map[string]Node, len(words)), Default: true}
	for _, w := range words {
		b.Children[w] = Leaf(false)
	}
	return b
}

// DefaultTree returns the negation phrases checked before a match.
func DefaultTree() Node {
	return &Branch{Children: map[string]Node{
		"no":       exceptions("new", "increased", "worsening"),
		"not":      exceptions("only", "just"),
		"without":  Leaf(true),
		"denies":   Leaf(true),
		"denied":   Leaf(true),
		"negative": Leaf(true),
		"neg":      Leaf(true),
		"none":     Leaf(true),
		"never":    Leaf(true),
		"non":      Leaf(true),
		"free":     Leaf(true),
	}}
}

// DefaultPostTree returns the negation phrases checked after a match.
func DefaultPostTree() Node {
	return &Branch{Children: map[string]Node{
		"absent":   Leaf(true),
		"negative": Leaf(true),
		"neg":      Leaf(true),
		"none":     Leaf(true),
		"resolved": Leaf(true),
		"not": &Branch{Children: map[string]Node{
			"seen":        Leaf(true),
			"present":     Leaf(true),
			"noted":       Leaf(true),
			"appreciated": Leaf(true),
			"visualized":  Leaf(true),
		}},
	}}
}

// Resolver pairs the pre- and post-negation trees with validated window
// parameters.
type Resolver struct {
	pre    Node
	post   Node
	params boundary.Params
}

// NewResolver validates p and returns a Resolver. A nil post tree
// disables post-negation.
func NewResolver(pre, post Node, p boundary.Params) (*Resolver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if pre == nil {
		pre = DefaultTree()
	}
	return &Resolver{pre: pre, post: post, params: p}, nil
}

// Default returns a Resolver with the built-in trees and a two word window.
func Default() *Resolver {
	r, _ := NewResolver(DefaultTree(), DefaultPostTree(), boundary.Params{WordWindow: 2})
	return r
}

// Negated checks the words before start, then the words after end. It
// returns the negating phrase, or "" when the span is not negated.
func (r *Resolver) Negated(text string, start, end int) string {
	// Params were validated in NewResolver, so the scanner cannot fail.
	if word, ok, _ := IsNegated(text, start, r.pre, r.params); ok {
		return nonEmpty(word)
	}
	if r.post == nil {
		return ""
	}
	if word, ok, _ := IsPostNegated(text, end, r.post, r.params); ok {
		return nonEmpty(word)
	}
	return ""
}

func nonEmpty(word string) string {
	if strings.TrimSpace(word) == "" {
		return "negated"
	}
	return word
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package negation

import (
	"github.com/pdiddy/eyenote/internal/boundary"
	"github.com/pdiddy/eyenote/pkg/types"
)

const defaultWordWindow = 2

// FromConfig builds a Resolver from configuration, loading term trees
// from the files it names. Unset trees use the built-in ones.
func FromConfig(cfg types.NegationConfig) (*Resolver, error) {
	p := boundary.Params{
		WordWindow:    cfg.WordWindow,
		CharWindow:    cfg.CharWindow,
		BoundaryChars: cfg.BoundaryChars,
	}
	if p.WordWindow == 0 {
		p.WordWindow = defaultWordWindow
	}

	pre, post := DefaultTree(), DefaultPostTree()
	var err error
	if cfg.PreTermsFile != "" {
		if pre, err = LoadTree(cfg.PreTermsFile); err != nil {
			return nil, err
		}
	}
	if cfg.PostTermsFile != "" {
		if post, err = LoadTree(cfg.PostTermsFile); err != nil {
			return nil, err
		}
	}
	return NewResolver(pre, post, p)
}

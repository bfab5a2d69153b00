// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"strings"

	"github.com/pdiddy/eyenote/internal/laterality"
	"github.com/pdiddy/eyenote/internal/section"
	"github.com/pdiddy/eyenote/pkg/types"
)

// separatorNames lets configuration name separators that cannot be map
// keys in a dotted config path.
var separatorNames = map[string]rune{
	"newline":   '\n',
	"pilcrow":   '¶',
	"period":    '.',
	"comma":     ',',
	"semicolon": ';',
	"colon":     ':',
}

// LocatorOptions converts configuration into Locator options. Zero
// fields keep the Locator defaults. Separator keys are a single character
// or one of the names in separatorNames.
func LocatorOptions(cfg types.LateralityConfig) laterality.Options {
	opts := laterality.Options{
		PrevMax:             cfg.PrevMax,
		NextMax:             cfg.NextMax,
		CharMax:             cfg.CharMax,
		MaxAnchorSeparators: cfg.MaxAnchorSeparators,
	}
	if len(cfg.SeparatorWeights) > 0 {
		opts.SeparatorWeights = make(map[rune]int, len(cfg.SeparatorWeights))
		for k, w := range cfg.SeparatorWeights {
			if r, ok := separatorNames[strings.ToLower(k)]; ok {
				opts.SeparatorWeights[r] = w
				continue
			}
			for _, r := range k {
				opts.SeparatorWeights[r] = w
				break
			}
		}
	}
	return opts
}

// OptionsFromConfig loads the header and token files named in cfg and
// returns the Options to build Documents with.
func OptionsFromConfig(cfg types.DocumentConfig) ([]Option, error) {
	opts := []Option{WithLocatorOptions(LocatorOptions(cfg.Laterality))}
	if cfg.HeadersFile != "" {
		headers, err := section.LoadHeaders(cfg.HeadersFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithHeaders(headers))
	}
	if cfg.Laterality.TokensFile != "" {
		table, err := laterality.LoadTable(cfg.Laterality.TokensFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTable(table))
	}
	return opts, nil
}

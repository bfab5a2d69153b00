// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package negation

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DefaultKey is the reserved mapping key that sets a Branch default in
// YAML term files.
const DefaultKey = "_default"

// Tree wraps a Node so it can be read from YAML. A term file is a
// mapping of words to either a boolean or a nested mapping:
//
//	no:
//	  new: false
//	  increased: false
//	  _default: true
//	without: true
type Tree struct {
	Root Node
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	n, err := decodeNode(value)
	if err != nil {
		return err
	}
	t.Root = n
	return nil
}

func decodeNode(v *yaml.Node) (Node, error) {
	if v.Kind == yaml.DocumentNode && len(v.Content) == 1 {
		v = v.Content[0]
	}
	switch v.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := v.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: expected boolean, got %q", v.Line, v.Value)
		}
		return Leaf(b), nil
	case yaml.MappingNode:
		br := &Branch{Children: make(map[string]Node, len(v.Content)/2)}
		for i := 0; i+1 < len(v.Content); i += 2 {
			key, val := v.Content[i].Value, v.Content[i+1]
			if key == DefaultKey {
				if err := val.Decode(&br.Default); err != nil {
					return nil, fmt.Errorf("line %d: %s must be a boolean", val.Line, DefaultKey)
				}
				continue
			}
			child, err := decodeNode(val)
			if err != nil {
				return nil, fmt.Errorf("term %q: %w", key, err)
			}
			br.Children[strings.ToLower(key)] = child
		}
		return br, nil
	default:
		return nil, fmt.Errorf("line %d: expected boolean or mapping", v.Line)
	}
}

// ParseTree decodes a term tree from YAML.
func ParseTree(data []byte) (Node, error) {
	var t Tree
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing negation terms: %w", err)
	}
	if t.Root == nil {
		return &Branch{Children: map[string]Node{}}, nil
	}
	return t.Root, nil
}

// LoadTree reads a term tree from a YAML file.
func LoadTree(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading negation terms %s: %w", path, err)
	}
	return ParseTree(data)
}

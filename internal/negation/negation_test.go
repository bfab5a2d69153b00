// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package negation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/eyenote/internal/boundary"
)

func TestWalk(t *testing.T) {
	tests := []struct {
		name        string
		tokens      []string
		wantWord    string
		wantNegated bool
	}{
		{"plain no", []string{"no", "drusen"}, "no", true},
		{"no at end of window", []string{"there", "no"}, "no", true},
		{"no new", []string{"no", "new"}, "", false},
		{"no increased", []string{"no", "increased"}, "", false},
		{"no worsening", []string{"no", "worsening"}, "", false},
		{"not only", []string{"not", "only"}, "", false},
		{"not just", []string{"not", "just"}, "", false},
		{"not alone", []string{"not"}, "not", true},
		{"without", []string{"without", "any"}, "without", true},
		{"no negation", []string{"mild", "central"}, "", false},
		{"empty window", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, negated := Walk(DefaultTree(), tt.tokens)
			assert.Equal(t, tt.wantNegated, negated)
			assert.Equal(t, tt.wantWord, word)
		})
	}
}

func TestWalkExceptionLaw(t *testing.T) {
	for _, x := range []string{"new", "increased", "worsening"} {
		_, negated := Walk(DefaultTree(), []string{"no", x})
		assert.False(t, negated, "no %s", x)
	}
	for _, x := range []string{"drusen", "heme", "edema", "change", "news"} {
		word, negated := Walk(DefaultTree(), []string{"no", x})
		assert.True(t, negated, "no %s", x)
		assert.Equal(t, "no", word)
	}
}

func TestWalkNestedPhrase(t *testing.T) {
	tree := &Branch{Children: map[string]Node{
		"no": &Branch{Children: map[string]Node{
			"evidence": &Branch{Children: map[string]Node{"of": Leaf(true)}},
		}},
	}}
	word, negated := Walk(tree, []string{"no", "evidence", "of"})
	assert.True(t, negated)
	assert.Equal(t, "no evidence of", word)

	_, negated = Walk(tree, []string{"no", "evidence"})
	assert.False(t, negated)
}

func TestIsNegated(t *testing.T) {
	text := "no plums, carrots, oranges"
	idx := strings.Index(text, "oranges")
	tree := &Branch{Children: map[string]Node{"no": Leaf(true)}}

	_, negated, err := IsNegated(text, idx, tree, boundary.Params{WordWindow: 1})
	require.NoError(t, err)
	assert.False(t, negated, "window of one word cannot reach the negation")

	word, negated, err := IsNegated(text, idx, tree, boundary.Params{WordWindow: 3})
	require.NoError(t, err)
	assert.True(t, negated)
	assert.Equal(t, "no", word)
}

func TestIsNegatedInvalidParams(t *testing.T) {
	_, _, err := IsNegated("no drusen", 3, DefaultTree(), boundary.Params{WordWindow: 2, BoundaryChars: []string{"ab"}})
	assert.ErrorIs(t, err, boundary.ErrInvalidArgument)
}

func TestIsPostNegated(t *testing.T) {
	text := "drusen not seen. heme present"
	word, negated, err := IsPostNegated(text, len("drusen"), DefaultPostTree(), boundary.Params{WordWindow: 3})
	require.NoError(t, err)
	assert.True(t, negated)
	assert.Equal(t, "not seen", word)

	idx := strings.Index(text, "heme") + len("heme")
	_, negated, err = IsPostNegated(text, idx, DefaultPostTree(), boundary.Params{WordWindow: 3})
	require.NoError(t, err)
	assert.False(t, negated)
}

func TestResolverNegated(t *testing.T) {
	r := Default()
	text := "OD: drusen OS: no drusen. No new heme. Edema absent"

	first := strings.Index(text, "drusen")
	assert.Equal(t, "", r.Negated(text, first, first+len("drusen")))

	second := strings.LastIndex(text, "drusen")
	assert.Equal(t, "no", r.Negated(text, second, second+len("drusen")))

	heme := strings.Index(text, "heme")
	assert.Equal(t, "", r.Negated(text, heme, heme+len("heme")))

	edema := strings.Index(text, "Edema")
	assert.Equal(t, "absent", r.Negated(text, edema, edema+len("Edema")))
}

func TestNewResolverRejectsBadBoundary(t *testing.T) {
	_, err := NewResolver(nil, nil, boundary.Params{WordWindow: 2, BoundaryChars: []string{"::"}})
	assert.ErrorIs(t, err, boundary.ErrInvalidArgument)
}

func TestParseTree(t *testing.T) {
	data := []byte(`
no:
  new: false
  Increased: false
  _default: true
without: true
`)
	tree, err := ParseTree(data)
	require.NoError(t, err)

	word, negated := Walk(tree, []string{"no", "drusen"})
	assert.True(t, negated)
	assert.Equal(t, "no", word)

	_, negated = Walk(tree, []string{"no", "increased"})
	assert.False(t, negated)

	word, negated = Walk(tree, []string{"without"})
	assert.True(t, negated)
	assert.Equal(t, "without", word)
}

func TestParseTreeErrors(t *testing.T) {
	_, err := ParseTree([]byte("no: maybe\n"))
	assert.Error(t, err)

	_, err = ParseTree([]byte("- no\n- not\n"))
	assert.Error(t, err)
}

func TestLoadTree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("denies: true\n"), 0o644))

	tree, err := LoadTree(path)
	require.NoError(t, err)
	_, negated := Walk(tree, []string{"patient", "denies"})
	assert.True(t, negated)

	_, err = LoadTree(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

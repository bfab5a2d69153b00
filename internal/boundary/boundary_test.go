// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package boundary

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBefore(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		anchor string
		params Params
		want   []string
	}{
		{
			name:   "last tokens within window",
			text:   "no plums, carrots, oranges",
			anchor: "oranges",
			params: Params{WordWindow: 3},
			want:   []string{"no", "plums", "carrots"},
		},
		{
			name:   "char window limits reach",
			text:   "no plums, carrots, oranges",
			anchor: "oranges",
			params: Params{WordWindow: 1},
			want:   []string{"carrots"},
		},
		{
			name:   "stops at boundary character",
			text:   "no hemorrhage. drusen",
			anchor: "drusen",
			params: Params{WordWindow: 3},
			want:   nil,
		},
		{
			name:   "skip regex removes false boundary",
			text:   "no OU: drusen",
			anchor: "drusen",
			params: Params{WordWindow: 3, SkipRegex: regexp.MustCompile(`(?i)\bOU\s*:`)},
			want:   []string{"no"},
		},
		{
			name:   "skip n boundary chars reaches previous clause",
			text:   "denies pain; no flashes. drusen",
			anchor: "drusen",
			params: Params{WordWindow: 2, CharWindow: 40, SkipNBoundaryChars: 1},
			want:   []string{"no", "flashes"},
		},
		{
			name:   "boundary regex unioned with chars",
			text:   "no pain but drusen",
			anchor: "drusen",
			params: Params{WordWindow: 3, BoundaryRegex: regexp.MustCompile(`\bbut\b`)},
			want:   nil,
		},
		{
			name:   "empty boundary set disables splitting",
			text:   "no pain. drusen",
			anchor: "drusen",
			params: Params{WordWindow: 3, BoundaryChars: []string{}},
			want:   []string{"no", "pain."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := strings.Index(tt.text, tt.anchor)
			require.GreaterOrEqual(t, idx, 0)
			got, err := Before(tt.text, idx, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAfter(t *testing.T) {
	text := "drusen absent OU. flat macula"
	got, err := After(text, len("drusen"), Params{WordWindow: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"absent", "ou"}, got)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"w/out heme", "without heme"},
		{"W/O heme", "without heme"},
		{"(-) flashes", " no  flashes"},
		{"-floaters", " no floaters"},
		{"non-proliferative", "non-proliferative"},
		{"periphery - flat", "periphery - flat"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestScanInvalidBoundaryChar(t *testing.T) {
	_, err := Before("no drusen", 3, Params{WordWindow: 2, BoundaryChars: []string{".;"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Before("no drusen", 3, Params{WordWindow: 2, BoundaryChars: []string{""}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScanNegativeWindow(t *testing.T) {
	for _, p := range []Params{
		{WordWindow: -1},
		{WordWindow: 2, CharWindow: -5},
		{WordWindow: 2, SkipNBoundaryChars: -1},
	} {
		_, err := Scan("no drusen", 3, Backward, p)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestScanMultibyteWindow(t *testing.T) {
	text := "¶¶¶¶no drusen"
	idx := strings.Index(text, "drusen")
	got, err := Before(text, idx, Params{WordWindow: 2, CharWindow: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"no"}, got)
}

func TestScanIndexOutOfRange(t *testing.T) {
	got, err := Before("no drusen", 100, Params{WordWindow: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"no", "drusen"}, got)

	got, err = After("no drusen", -5, Params{WordWindow: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"no"}, got)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"github.com/pdiddy/eyenote/internal/laterality"
	"github.com/pdiddy/eyenote/pkg/types"
)

const (
	present = "yes"
	absent  = "no"
)

// Summarize collapses findings into one row per note and variable with
// a value per eye. An affirmed finding outranks a negated one for the
// same eye; OU counts for both eyes. Rows keep first-seen order.
func Summarize(findings []types.Finding) []types.EyeSummary {
	type key struct{ note, variable string }
	index := make(map[key]int)
	var rows []types.EyeSummary

	for _, f := range findings {
		k := key{f.NoteID, f.Variable}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, types.EyeSummary{NoteID: f.NoteID, Variable: f.Variable})
		}
		row := &rows[i]

		value := present
		if f.Negated() {
			value = absent
		}
		switch {
		case f.Laterality == laterality.Unknown:
			row.Unknown = combine(row.Unknown, value)
		default:
			if f.Laterality.Covers(laterality.OD) {
				row.Right = combine(row.Right, value)
			}
			if f.Laterality.Covers(laterality.OS) {
				row.Left = combine(row.Left, value)
			}
		}
	}
	return rows
}

func combine(current, value string) string {
	if current == present {
		return present
	}
	return value
}

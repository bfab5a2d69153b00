// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/eyenote/internal/laterality"
	"github.com/pdiddy/eyenote/pkg/types"
)

// QueryOptions holds parameters for findings queries.
type QueryOptions struct {
	// Query is a substring matched against the finding value and context.
	Query string

	Variable string
	NoteID   string
	Section  string

	// Eye keeps findings that apply to this eye. OD and OS also match
	// OU findings; Unknown means no filter.
	Eye laterality.Laterality

	// Negated filters on negation when set.
	Negated *bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Variable == "" && q.NoteID == "" && q.Section == "" &&
		q.Eye == laterality.Unknown && q.Negated == nil
}

// Retrieve queries findings. Results are ordered by note, then offset.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Finding, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT id, note_id, variable, value, laterality, negation, section,
			start_offset, end_offset, context
		FROM findings
		WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND (value LIKE ? ESCAPE '\' OR context LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(opts.Query) + "%"
		args = append(args, pattern, pattern)
	}

	if opts.Variable != "" {
		qb.WriteString(` AND variable = ?`)
		args = append(args, opts.Variable)
	}

	if opts.NoteID != "" {
		qb.WriteString(` AND note_id = ?`)
		args = append(args, opts.NoteID)
	}

	if opts.Section != "" {
		qb.WriteString(` AND section = ?`)
		args = append(args, opts.Section)
	}

	switch opts.Eye {
	case laterality.Unknown:
	case laterality.OD, laterality.OS:
		qb.WriteString(` AND laterality IN (?, ?)`)
		args = append(args, opts.Eye.String(), laterality.OU.String())
	default:
		qb.WriteString(` AND laterality = ?`)
		args = append(args, opts.Eye.String())
	}

	if opts.Negated != nil {
		if *opts.Negated {
			qb.WriteString(` AND negation <> ''`)
		} else {
			qb.WriteString(` AND (negation IS NULL OR negation = '')`)
		}
	}

	qb.WriteString(` ORDER BY note_id, start_offset, variable LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var results []types.Finding
	for rows.Next() {
		var (
			f        types.Finding
			lat      string
			negation sql.NullString
			section  sql.NullString
			snippet  sql.NullString
		)

		if err := rows.Scan(
			&f.ID, &f.NoteID, &f.Variable, &f.Value, &lat, &negation, &section,
			&f.Start, &f.End, &snippet,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if f.Laterality, err = laterality.Parse(lat); err != nil {
			return nil, fmt.Errorf("finding %s: %w", f.ID, err)
		}
		f.Negation = negation.String
		f.Section = section.String
		f.Context = snippet.String

		results = append(results, f)
	}

	return results, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Trace returns the source note line(s) containing a finding, with the
// matched text bracketed.
func (s *Store) Trace(ctx context.Context, findingID string) (string, error) {
	var noteID string
	var start, end int

	err := s.db.QueryRowContext(ctx,
		`SELECT note_id, start_offset, end_offset FROM findings WHERE id = ?`, findingID,
	).Scan(&noteID, &start, &end)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("finding %s not found", findingID)
		}
		return "", fmt.Errorf("looking up finding: %w", err)
	}

	notePath := filepath.Join(s.notesDir, noteID+".txt")
	content, err := os.ReadFile(notePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", notePath, err)
	}

	return traceContext(string(content), start, end)
}

// traceContext returns the lines of text covering [start, end) with the
// span marked.
func traceContext(text string, start, end int) (string, error) {
	if start < 0 || end > len(text) || start >= end ||
		!utf8.RuneStart(text[start]) || (end < len(text) && !utf8.RuneStart(text[end])) {
		return "", fmt.Errorf("offsets %d-%d do not fit the note; was it edited after extraction?", start, end)
	}
	from := 0
	if i := strings.LastIndexAny(text[:start], "\n¶"); i >= 0 {
		_, w := utf8.DecodeRuneInString(text[i:])
		from = i + w
	}
	to := len(text)
	if i := strings.IndexAny(text[end:], "\n¶"); i >= 0 {
		to = end + i
	}
	return strings.TrimSpace(text[from:start] + "[" + text[start:end] + "]" + text[end:to]), nil
}

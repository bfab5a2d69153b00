// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract matches variables in clinical notes and annotates each
// match with the eye it applies to and whether it is negated.
package extract

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/eyenote/internal/document"
	"github.com/pdiddy/eyenote/internal/negation"
	"github.com/pdiddy/eyenote/pkg/types"
)

const (
	noteSuffix     = ".txt"
	findingsSuffix = "-findings.yaml"

	defaultWorkers = 4

	// contextWidth is how many bytes of text surround a match in
	// Finding.Context.
	contextWidth = 40
)

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
	Findings  int
}

// Total returns the number of notes processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any notes failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractAll processes every note in cfg.NotesDir and writes one findings
// file per note to cfg.OutDir. Notes whose findings file is newer than
// the note are skipped. Up to cfg.Workers notes are processed at once;
// a failed note is reported on w and does not stop the batch.
func ExtractAll(ctx context.Context, cfg types.ExtractionConfig, vars []Variable, resolver *negation.Resolver, w io.Writer) (BatchSummary, error) {
	docOpts, err := document.OptionsFromConfig(cfg.Document)
	if err != nil {
		return BatchSummary{}, err
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(cfg.NotesDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading notes directory %s: %w", cfg.NotesDir, err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu      sync.Mutex
		summary BatchSummary
	)
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), noteSuffix) {
			continue
		}

		noteID := strings.TrimSuffix(entry.Name(), noteSuffix)
		notePath := filepath.Join(cfg.NotesDir, entry.Name())
		outPath := filepath.Join(cfg.OutDir, noteID+findingsSuffix)

		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			changed, err := hasChanged(notePath, outPath)
			if err != nil {
				report("failed  %s: %v\n", noteID, err)
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				return nil
			}
			if !changed {
				report("skipped %s\n", noteID)
				mu.Lock()
				summary.Skipped++
				mu.Unlock()
				return nil
			}

			result, err := ExtractFile(noteID, notePath, vars, resolver, docOpts...)
			if err == nil {
				err = writeResult(outPath, result)
			}
			if err != nil {
				report("failed  %s: %v\n", noteID, err)
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				return nil
			}

			report("extracted %s (%d findings)\n", noteID, len(result.Findings))
			mu.Lock()
			summary.Extracted++
			summary.Findings += len(result.Findings)
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// ExtractFile reads one note and extracts its findings.
func ExtractFile(noteID, path string, vars []Variable, resolver *negation.Resolver, opts ...document.Option) (*types.ExtractionResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", path, err)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("note %s: not valid UTF-8", path)
	}

	doc := document.New(string(content), append([]document.Option{document.WithID(noteID)}, opts...)...)
	result := &types.ExtractionResult{
		NoteID:   noteID,
		Findings: ExtractNote(doc, vars, resolver),
	}
	for _, s := range doc.View(document.Full).Sections().All() {
		result.Sections = append(result.Sections, strings.Join(s.Categories, "/"))
	}
	return result, nil
}

// ExtractNote matches every variable against its view of doc. Findings
// are ordered by offset, then variable. A nil resolver uses the built-in
// negation trees.
func ExtractNote(doc *document.Document, vars []Variable, resolver *negation.Resolver) []types.Finding {
	if resolver == nil {
		resolver = negation.Default()
	}

	var findings []types.Finding
	for _, v := range vars {
		if v.re == nil {
			continue
		}
		view := doc.View(v.View)
		text := view.Text()
		for _, loc := range v.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if start == end {
				continue
			}
			scope := view.At(start)
			if !inSections(view, scope, v.Sections) {
				continue
			}

			f := types.Finding{
				ID:         stableID(doc.ID(), v.Name, start),
				NoteID:     doc.ID(),
				Variable:   v.Name,
				Value:      text[start:end],
				Laterality: scope.Locator.GetByIndex(start, end),
				Section:    scope.Name(),
				Start:      start,
				End:        end,
				Context:    snippet(doc.Text(), start, end),
			}
			if !v.SkipNegation {
				f.Negation = resolver.Negated(text, start, end)
			}
			findings = append(findings, f)
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Start != findings[j].Start {
			return findings[i].Start < findings[j].Start
		}
		return findings[i].Variable < findings[j].Variable
	})
	return findings
}

// inSections reports whether scope satisfies a variable's section filter.
// A note without any sections is read as a whole.
func inSections(view *document.View, scope document.Scope, categories []string) bool {
	if len(categories) == 0 || view.Sections().Empty() {
		return true
	}
	for _, c := range categories {
		if scope.Is(c) {
			return true
		}
	}
	return false
}

// stableID generates a deterministic ID from note ID, variable and offset.
// The ID is the first 12 hex characters of SHA-256.
func stableID(noteID, variable string, start int) string {
	h := sha256.New()
	h.Write([]byte(noteID))
	h.Write([]byte(variable))
	fmt.Fprintf(h, "%d", start)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// snippet returns up to contextWidth bytes either side of the match on
// one line.
func snippet(text string, start, end int) string {
	from := max(start-contextWidth, 0)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	to := min(end+contextWidth, len(text))
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	s := strings.NewReplacer("\r\n", " ", "\n", " ", "¶", " ").Replace(text[from:to])
	return strings.Join(strings.Fields(s), " ")
}

// hasChanged reports whether the note is newer than its findings file.
// Returns true if the findings file does not exist.
func hasChanged(notePath, outPath string) (bool, error) {
	noteInfo, err := os.Stat(notePath)
	if err != nil {
		return false, fmt.Errorf("stat note %s: %w", notePath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return noteInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeResult marshals the ExtractionResult to a YAML file.
func writeResult(path string, result *types.ExtractionResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

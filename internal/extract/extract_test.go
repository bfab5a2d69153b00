package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/eyenote/internal/document"
	"github.com/pdiddy/eyenote/internal/laterality"
	"github.com/pdiddy/eyenote/pkg/types"
)

const maculaNote = "HPI: drusen OS\nMACULA: drusen OD, no CNV\nPLAN:\nobserve"

func testConfig(tmpDir string) types.ExtractionConfig {
	return types.ExtractionConfig{
		NotesDir: filepath.Join(tmpDir, "notes"),
		OutDir:   filepath.Join(tmpDir, "findings"),
		Workers:  2,
	}
}

func writeNote(t *testing.T, dir, name, text string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readResult(t *testing.T, path string) types.ExtractionResult {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var result types.ExtractionResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshaling %s: %v", path, err)
	}
	return result
}

// --- stableID ---

func TestStableID(t *testing.T) {
	id1 := stableID("n1", "drusen", 10)
	id2 := stableID("n1", "drusen", 10)
	if id1 != id2 {
		t.Errorf("stableID not deterministic: %q != %q", id1, id2)
	}
	if len(id1) != 12 {
		t.Errorf("stableID length = %d, want 12", len(id1))
	}
	if id3 := stableID("n1", "drusen", 11); id3 == id1 {
		t.Error("stableID should differ for different offsets")
	}
	if id4 := stableID("n2", "drusen", 10); id4 == id1 {
		t.Error("stableID should differ for different notes")
	}
}

// --- snippet ---

func TestSnippet(t *testing.T) {
	text := "line one\nMACULA: drusen OD"
	idx := strings.Index(text, "drusen")
	got := snippet(text, idx, idx+6)
	if got != "line one MACULA: drusen OD" {
		t.Errorf("snippet = %q", got)
	}

	long := strings.Repeat("é", 40) + "drusen" + strings.Repeat("é", 40)
	idx = strings.Index(long, "drusen")
	got = snippet(long, idx, idx+6)
	if !strings.Contains(got, "drusen") || !strings.HasPrefix(got, "é") {
		t.Errorf("snippet cut a rune: %q", got)
	}
}

// --- ExtractNote ---

func TestExtractNote(t *testing.T) {
	doc := document.New(maculaNote, document.WithID("n1"))
	findings := ExtractNote(doc, DefaultVariables(), nil)

	if len(findings) != 2 {
		for _, f := range findings {
			t.Logf("  %s %q %s %q", f.Variable, f.Value, f.Laterality, f.Negation)
		}
		t.Fatalf("got %d findings, want 2", len(findings))
	}

	drusen := findings[0]
	if drusen.Variable != "drusen" {
		t.Errorf("findings[0].Variable = %q, want drusen", drusen.Variable)
	}
	if drusen.Start != strings.Index(maculaNote, "drusen OD") {
		t.Errorf("drusen.Start = %d, want the macula mention", drusen.Start)
	}
	if drusen.Laterality != laterality.OD {
		t.Errorf("drusen.Laterality = %s, want OD", drusen.Laterality)
	}
	if drusen.Negated() {
		t.Errorf("drusen negated by %q", drusen.Negation)
	}
	if drusen.Section != "macula" {
		t.Errorf("drusen.Section = %q, want macula", drusen.Section)
	}
	if drusen.NoteID != "n1" || drusen.ID != stableID("n1", "drusen", drusen.Start) {
		t.Errorf("drusen identity = %q/%q", drusen.NoteID, drusen.ID)
	}

	cnv := findings[1]
	if cnv.Variable != "cnv" {
		t.Errorf("findings[1].Variable = %q, want cnv", cnv.Variable)
	}
	if cnv.Negation != "no" {
		t.Errorf("cnv.Negation = %q, want no", cnv.Negation)
	}
	if cnv.Laterality != laterality.OD {
		t.Errorf("cnv.Laterality = %s, want OD", cnv.Laterality)
	}
}

func TestExtractNoteEyeHeadings(t *testing.T) {
	note := "RIGHT EYE:\nMacula: drusen\n\nLEFT EYE:\nMacula: no drusen\n"
	findings := ExtractNote(document.New(note, document.WithID("n2")), DefaultVariables(), nil)

	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}
	tests := []struct {
		lat      laterality.Laterality
		negation string
	}{
		{laterality.OD, ""},
		{laterality.OS, "no"},
	}
	for i, tt := range tests {
		f := findings[i]
		if f.Variable != "drusen" || f.Section != "macula" {
			t.Errorf("findings[%d] = %s in %q, want drusen in macula", i, f.Variable, f.Section)
		}
		if f.Laterality != tt.lat {
			t.Errorf("findings[%d].Laterality = %s, want %s", i, f.Laterality, tt.lat)
		}
		if f.Negation != tt.negation {
			t.Errorf("findings[%d].Negation = %q, want %q", i, f.Negation, tt.negation)
		}
	}
}

func TestExtractNoteHistoryHidden(t *testing.T) {
	doc := document.New("HPI: drusen OS")
	if findings := ExtractNote(doc, DefaultVariables(), nil); len(findings) != 0 {
		t.Errorf("got %d findings from history, want 0", len(findings))
	}
}

func TestExtractNoteSectionFilter(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantLat []laterality.Laterality
	}{
		{
			name:    "only lens section counts",
			text:    "PLAN: cataract evaluation\nLENS: cataract OS",
			wantLat: []laterality.Laterality{laterality.OS},
		},
		{
			name:    "note without sections is read whole",
			text:    "cataract OD",
			wantLat: []laterality.Laterality{laterality.OD},
		},
		{
			name:    "nested under exam",
			text:    "EXAM:\nCornea: clear\nLids: cataract OU",
			wantLat: []laterality.Laterality{laterality.OU},
		},
	}

	vars := DefaultVariables()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []laterality.Laterality
			for _, f := range ExtractNote(document.New(tt.text), vars, nil) {
				if f.Variable == "cataract" {
					got = append(got, f.Laterality)
				}
			}
			if len(got) != len(tt.wantLat) {
				t.Fatalf("got %v, want %v", got, tt.wantLat)
			}
			for i := range got {
				if got[i] != tt.wantLat[i] {
					t.Errorf("cataract[%d] = %s, want %s", i, got[i], tt.wantLat[i])
				}
			}
		})
	}
}

func TestExtractNoteUnknownAndSkipNegation(t *testing.T) {
	vars, err := Compile([]Variable{
		{Name: "drusen", Pattern: `drusen`},
		{Name: "heme", Pattern: `heme`, SkipNegation: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	findings := ExtractNote(document.New("no drusen or heme"), vars, nil)
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}
	if findings[0].Negation != "no" {
		t.Errorf("drusen.Negation = %q, want no", findings[0].Negation)
	}
	if findings[1].Negated() {
		t.Errorf("heme should skip negation, got %q", findings[1].Negation)
	}
	for _, f := range findings {
		if f.Laterality != laterality.Unknown {
			t.Errorf("%s.Laterality = %s, want UNKNOWN", f.Variable, f.Laterality)
		}
	}
}

// --- Variables ---

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		vars []Variable
	}{
		{"missing name", []Variable{{Pattern: "x"}}},
		{"duplicate name", []Variable{{Name: "a", Pattern: "x"}, {Name: "a", Pattern: "y"}}},
		{"bad pattern", []Variable{{Name: "a", Pattern: "(x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.vars); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadVariables(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "vars.yaml", `
- name: pvd
  pattern: '\bPVD\b|posterior\s+vitreous\s+detachment'
  view: no_oct
  sections: [vitreous]
- name: floaters
  pattern: floaters
  skip_negation: true
`)
	vars, err := LoadVariables(path)
	if err != nil {
		t.Fatalf("LoadVariables: %v", err)
	}
	if len(vars) != 2 {
		t.Fatalf("got %d variables, want 2", len(vars))
	}
	if vars[0].View != document.NoOCT {
		t.Errorf("vars[0].View = %s, want no_oct", vars[0].View)
	}
	if !vars[1].SkipNegation {
		t.Error("vars[1].SkipNegation = false")
	}

	findings := ExtractNote(document.New("VITREOUS: PVD OS\nLENS: clear"), vars, nil)
	if len(findings) != 1 || findings[0].Laterality != laterality.OS {
		t.Errorf("findings = %+v", findings)
	}

	if _, err := LoadVariables(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := writeNote(t, dir, "bad.yaml", "- name: x\n  view: sideways\n")
	if _, err := LoadVariables(bad); err == nil {
		t.Error("expected error for unknown view")
	}
}

// --- ExtractAll ---

func TestExtractAll(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)

	writeNote(t, cfg.NotesDir, "n1.txt", maculaNote)
	writeNote(t, cfg.NotesDir, "n2.txt", "Periphery: retinal detachment OS")
	writeNote(t, cfg.NotesDir, "README.md", "not a note")

	var buf strings.Builder
	summary, err := ExtractAll(context.Background(), cfg, DefaultVariables(), nil, &buf)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}

	if summary.Extracted != 2 {
		t.Errorf("Extracted = %d, want 2", summary.Extracted)
	}
	if summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("Skipped/Failed = %d/%d, want 0/0", summary.Skipped, summary.Failed)
	}
	if summary.Findings != 3 {
		t.Errorf("Findings = %d, want 3", summary.Findings)
	}
	if summary.Total() != 2 || summary.HasFailures() {
		t.Errorf("Total/HasFailures = %d/%v", summary.Total(), summary.HasFailures())
	}

	r1 := readResult(t, filepath.Join(cfg.OutDir, "n1-findings.yaml"))
	if r1.NoteID != "n1" || len(r1.Findings) != 2 {
		t.Errorf("n1: note %q with %d findings", r1.NoteID, len(r1.Findings))
	}
	if len(r1.Sections) != 3 {
		t.Errorf("n1 sections = %v, want 3", r1.Sections)
	}

	r2 := readResult(t, filepath.Join(cfg.OutDir, "n2-findings.yaml"))
	if len(r2.Findings) != 1 {
		t.Fatalf("n2: got %d findings, want 1", len(r2.Findings))
	}
	if f := r2.Findings[0]; f.Variable != "retinal_detachment" || f.Laterality != laterality.OS {
		t.Errorf("n2 finding = %s %s", f.Variable, f.Laterality)
	}

	out := buf.String()
	if !strings.Contains(out, "extracted n1 (2 findings)") {
		t.Errorf("output missing n1 line:\n%s", out)
	}
	if strings.Contains(out, "README") {
		t.Errorf("non-note file processed:\n%s", out)
	}
}

func TestExtractAllSkipsUnchanged(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)
	writeNote(t, cfg.NotesDir, "n1.txt", maculaNote)

	outPath := writeNote(t, cfg.OutDir, "n1-findings.yaml", "note_id: n1\nfindings: []\n")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(outPath, future, future); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	summary, err := ExtractAll(context.Background(), cfg, DefaultVariables(), nil, &buf)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if summary.Skipped != 1 || summary.Extracted != 0 {
		t.Errorf("Skipped/Extracted = %d/%d, want 1/0", summary.Skipped, summary.Extracted)
	}
	if !strings.Contains(buf.String(), "skipped n1") {
		t.Errorf("output = %q", buf.String())
	}
	if r := readResult(t, outPath); len(r.Findings) != 0 {
		t.Error("skipped note was rewritten")
	}
}

func TestExtractAllReextractsChanged(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)
	writeNote(t, cfg.NotesDir, "n1.txt", maculaNote)

	outPath := writeNote(t, cfg.OutDir, "n1-findings.yaml", "note_id: n1\nfindings: []\n")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(outPath, past, past); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	summary, err := ExtractAll(context.Background(), cfg, DefaultVariables(), nil, &buf)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if summary.Extracted != 1 {
		t.Errorf("Extracted = %d, want 1", summary.Extracted)
	}
	if r := readResult(t, outPath); len(r.Findings) != 2 {
		t.Errorf("got %d findings after re-extraction, want 2", len(r.Findings))
	}
}

func TestExtractAllInvalidNote(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)
	writeNote(t, cfg.NotesDir, "bad.txt", "drusen \xff\xfe OD")
	writeNote(t, cfg.NotesDir, "good.txt", "drusen OD")

	var buf strings.Builder
	summary, err := ExtractAll(context.Background(), cfg, DefaultVariables(), nil, &buf)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if summary.Failed != 1 || summary.Extracted != 1 {
		t.Errorf("Failed/Extracted = %d/%d, want 1/1", summary.Failed, summary.Extracted)
	}
	if !strings.Contains(buf.String(), "failed  bad:") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestExtractAllConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)

	if _, err := ExtractAll(context.Background(), cfg, DefaultVariables(), nil, &strings.Builder{}); err == nil {
		t.Error("expected error for missing notes directory")
	}

	writeNote(t, cfg.NotesDir, "n1.txt", maculaNote)
	cfg.Document.HeadersFile = filepath.Join(tmpDir, "missing.yaml")
	if _, err := ExtractAll(context.Background(), cfg, DefaultVariables(), nil, &strings.Builder{}); err == nil {
		t.Error("expected error for missing headers file")
	}
}

func TestExtractAllCancelled(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)
	writeNote(t, cfg.NotesDir, "n1.txt", maculaNote)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractAll(ctx, cfg, DefaultVariables(), nil, &strings.Builder{}); err == nil {
		t.Error("expected context error")
	}
}

// --- BatchSummary ---

func TestBatchSummary(t *testing.T) {
	s := BatchSummary{Extracted: 3, Skipped: 2, Failed: 1}
	if s.Total() != 6 {
		t.Errorf("Total() = %d, want 6", s.Total())
	}
	if !s.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}

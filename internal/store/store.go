// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extracted findings in SQLite so they can be
// queried across notes and exported.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/eyenote/pkg/types"
)

const (
	findingsDir    = "findings"
	indexDir       = "index"
	dbFile         = "findings.db"
	findingsSuffix = "-findings.yaml"

	defaultMaxResults = 50
)

// Store manages the findings SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	notesDir   string
	maxResults int
}

// NewStore opens or creates the findings database at
// dataDir/index/findings.db and creates the schema if it does not exist.
// notesDir locates the source notes for Trace.
func NewStore(cfg types.StoreConfig, notesDir string) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		notesDir:   notesDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			sections TEXT,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			note_id TEXT NOT NULL REFERENCES notes(id),
			variable TEXT NOT NULL,
			value TEXT NOT NULL,
			laterality TEXT NOT NULL,
			negation TEXT,
			section TEXT,
			start_offset INTEGER,
			end_offset INTEGER,
			context TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_note_id ON findings(note_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_variable ON findings(variable)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			note_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of notes processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads findings files from dataDir/findings/ and populates the
// database. Files whose modification time matches the last indexing run
// are skipped; changed files replace the note's findings. On success it
// writes export.yaml.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	dir := filepath.Join(s.dataDir, findingsDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading findings directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), findingsSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		noteID := strings.TrimSuffix(entry.Name(), findingsSuffix)
		filePath := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", noteID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE note_id = ?`, noteID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", noteID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", noteID, err)
			summary.Failed++
			continue
		}

		var result types.ExtractionResult
		if err := yaml.Unmarshal(data, &result); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", noteID, err)
			summary.Failed++
			continue
		}
		if result.NoteID == "" {
			result.NoteID = noteID
		}

		if err := s.ingestNote(ctx, &result, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", noteID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d findings)\n", noteID, len(result.Findings))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d findings)\n", noteID, len(result.Findings))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) ingestNote(ctx context.Context, result *types.ExtractionResult, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE note_id = ?`, result.NoteID); err != nil {
		return fmt.Errorf("deleting old findings: %w", err)
	}

	sectionsJSON, _ := json.Marshal(result.Sections)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes (id, sections, error) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET sections=excluded.sections, error=excluded.error`,
		result.NoteID, string(sectionsJSON), result.Error,
	)
	if err != nil {
		return fmt.Errorf("upserting note: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO findings (id, note_id, variable, value, laterality, negation, section, start_offset, end_offset, context)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range result.Findings {
		_, err := stmt.ExecContext(ctx,
			f.ID, result.NoteID, f.Variable, f.Value, f.Laterality.String(),
			f.Negation, f.Section, f.Start, f.End, f.Context,
		)
		if err != nil {
			return fmt.Errorf("inserting finding %s: %w", f.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (note_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(note_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		result.NoteID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/eyenote/internal/laterality"
	"github.com/pdiddy/eyenote/internal/store"
	"github.com/pdiddy/eyenote/pkg/types"
)

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Manage the findings store (store, retrieve, export)",
	Long: `Findings manages a local SQLite store built from extracted findings.
Use subcommands to index findings, query them, or export them with a
per-eye summary.`,
}

// --- store subcommand ---

var findingsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest extracted findings into the store",
	Long: `Store reads findings YAML files from findings/ under the data
directory, ingests them into a SQLite database, and writes an export file.
Unchanged notes are skipped on subsequent runs.`,
	RunE: runFindingsStore,
}

func runFindingsStore(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d note(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var findingsRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query findings by text, variable, note, section, eye or negation",
	Long: `Retrieve searches stored findings by a substring of their value or
context, structured filters, or a combination of both. An --eye filter of
od or os also matches findings recorded for both eyes.

Use --trace with a finding ID to view the note line it came from.`,
	RunE: runFindingsRetrieve,
}

func runFindingsRetrieve(cmd *cobra.Command, args []string) error {
	traceID, _ := cmd.Flags().GetString("trace")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if traceID != "" {
		text, err := st.Trace(cmd.Context(), traceID)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if opts.IsEmpty() {
		return errors.New("query or filter required: provide a search query, --variable, --note, --section, --eye, --negated or --affirmed")
	}

	results, err := st.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []types.Finding, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-16s  %-20s  %-3s  %-14s  %-12s  %s\n",
		"ID", "Note", "Variable", "Eye", "Negation", "Section", "Context")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, f := range results {
		neg := f.Negation
		if neg == "" {
			neg = "-"
		}
		fmt.Fprintf(os.Stdout, "%-12s  %-16s  %-20s  %-3s  %-14s  %-12s  %s\n",
			f.ID, truncate(f.NoteID, 16), truncate(f.Variable, 20), f.Laterality,
			truncate(neg, 14), truncate(f.Section, 12), truncate(f.Context, 40))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

// --- export subcommand ---

var findingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export findings to YAML or JSON",
	Long: `Export writes all stored findings (or a filtered subset) with a
per-note, per-eye summary to index/export.yaml or export.json under the
data directory. Supports the same filter flags as retrieve.`,
	RunE: runFindingsExport,
}

func runFindingsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "":
		if err := st.ExportYAML(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to", st.ExportPath("yaml"))
	case "json":
		if err := st.ExportJSON(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to", st.ExportPath("json"))
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sc := cfg.Store
	sc.DataDir = stringFlag(cmd, "data-dir", sc.DataDir)
	sc.MaxResults = intFlag(cmd, "max-results", sc.MaxResults)
	notesDir := stringFlag(cmd, "notes-dir", cfg.Extraction.NotesDir)

	return store.NewStore(sc, notesDir)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (store.QueryOptions, error) {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	variable, _ := cmd.Flags().GetString("variable")
	noteID, _ := cmd.Flags().GetString("note")
	sectionName, _ := cmd.Flags().GetString("section")
	eyeName, _ := cmd.Flags().GetString("eye")
	negated, _ := cmd.Flags().GetBool("negated")
	affirmed, _ := cmd.Flags().GetBool("affirmed")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Query:      queryText,
		Variable:   variable,
		NoteID:     noteID,
		Section:    sectionName,
		MaxResults: limit,
	}

	if eyeName != "" {
		eye, err := laterality.Parse(eyeName)
		if err != nil {
			return opts, err
		}
		opts.Eye = eye
	}

	switch {
	case negated && affirmed:
		return opts, errors.New("--negated and --affirmed are mutually exclusive")
	case negated:
		opts.Negated = &negated
	case affirmed:
		no := false
		opts.Negated = &no
	}
	return opts, nil
}

func addFilterFlags(cmd *cobra.Command, what string) {
	cmd.Flags().String("query", "", "substring of the finding value or context"+what)
	cmd.Flags().String("variable", "", "filter by variable name"+what)
	cmd.Flags().String("note", "", "filter by note ID"+what)
	cmd.Flags().String("section", "", "filter by section name"+what)
	cmd.Flags().String("eye", "", "filter by eye: od, os or ou"+what)
	cmd.Flags().Bool("negated", false, "only negated findings"+what)
	cmd.Flags().Bool("affirmed", false, "only findings that are not negated"+what)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	findingsCmd.PersistentFlags().String("data-dir", ".", "base directory for the store (contains findings/, index/)")
	findingsCmd.PersistentFlags().String("notes-dir", "notes", "directory of source notes, used by --trace")
	findingsCmd.PersistentFlags().Int("max-results", 50, "maximum number of query results")

	// Retrieve flags.
	addFilterFlags(findingsRetrieveCmd, "")
	findingsRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	findingsRetrieveCmd.Flags().String("trace", "", "show the source line for a finding ID")
	findingsRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	findingsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	addFilterFlags(findingsExportCmd, " for partial export")
	findingsExportCmd.Flags().Int("limit", 0, "maximum findings to export (0 = all)")

	// Wire subcommands.
	findingsCmd.AddCommand(findingsStoreCmd)
	findingsCmd.AddCommand(findingsRetrieveCmd)
	findingsCmd.AddCommand(findingsExportCmd)

	rootCmd.AddCommand(findingsCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/eyenote/internal/extract"
	"github.com/pdiddy/eyenote/internal/negation"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract findings from a directory of notes",
	Long: `Extract reads every .txt note in the notes directory, matches the
configured variables, and writes one findings YAML file per note with the
eye and negation of every match. Notes whose findings are newer than the
note itself are skipped on subsequent runs.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ec := cfg.Extraction
	ec.NotesDir = stringFlag(cmd, "notes-dir", ec.NotesDir)
	ec.OutDir = stringFlag(cmd, "out-dir", ec.OutDir)
	ec.VariablesFile = stringFlag(cmd, "variables", ec.VariablesFile)
	ec.Document.HeadersFile = stringFlag(cmd, "headers", ec.Document.HeadersFile)
	ec.Workers = intFlag(cmd, "workers", ec.Workers)

	vars := extract.DefaultVariables()
	if ec.VariablesFile != "" {
		vars, err = extract.LoadVariables(ec.VariablesFile)
		if err != nil {
			return err
		}
	}

	resolver, err := negation.FromConfig(ec.Negation)
	if err != nil {
		return err
	}

	summary, err := extract.ExtractAll(cmd.Context(), ec, vars, resolver, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\n%d notes: %d extracted, %d skipped, %d failed (%d findings)\n",
		summary.Total(), summary.Extracted, summary.Skipped, summary.Failed, summary.Findings)
	if summary.HasFailures() {
		return fmt.Errorf("%d note(s) failed extraction", summary.Failed)
	}
	return nil
}

func init() {
	extractCmd.Flags().String("notes-dir", "notes", "directory of .txt notes")
	extractCmd.Flags().String("out-dir", "findings", "directory for findings YAML files")
	extractCmd.Flags().String("variables", "", "YAML variable definitions replacing the built-in set")
	extractCmd.Flags().String("headers", "", "YAML header table replacing the built-in one")
	extractCmd.Flags().Int("workers", 4, "notes processed concurrently")

	rootCmd.AddCommand(extractCmd)
}

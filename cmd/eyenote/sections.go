// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/eyenote/internal/document"
	"github.com/pdiddy/eyenote/internal/section"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections <note.txt>",
	Short: "Show the sections found in a note",
	Long: `Sections segments a note with the configured header table and prints
each section with its level, offsets and the default eye its name implies.
Nested sections are indented under the major section they belong to.
Text that no section owns is listed at the end.`,
	Args: cobra.ExactArgs(1),
	RunE: runSections,
}

type sectionRow struct {
	Categories []string     `json:"categories"`
	Level      int          `json:"level"`
	Header     section.Span `json:"header"`
	Content    section.Span `json:"content"`
	Default    string       `json:"default_laterality"`
	Text       string       `json:"text"`
	Children   []sectionRow `json:"children,omitempty"`
}

func runSections(cmd *cobra.Command, args []string) error {
	viewName, _ := cmd.Flags().GetString("view")
	kind, err := document.ParseKind(viewName)
	if err != nil {
		return err
	}

	doc, err := openNote(cmd, args[0])
	if err != nil {
		return err
	}
	seg := doc.View(kind).Sections()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sectionRows(seg.Sections))
	}

	if seg.Empty() {
		fmt.Println("No sections found; the note is read as a whole.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-28s  %-11s  %-7s  %s\n", "Level", "Section", "Content", "Default", "Text")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	printSections(seg.Sections, 0)

	if extra := seg.Extra(); len(extra) > 0 {
		fmt.Fprintf(os.Stdout, "\nUnsectioned text:\n")
		for _, sp := range extra {
			fmt.Fprintf(os.Stdout, "  %d-%d  %s\n", sp.Start, sp.End, preview(seg.Text[sp.Start:sp.End], 60))
		}
	}
	return nil
}

func printSections(ss []*section.Section, depth int) {
	for _, s := range ss {
		name := strings.Repeat("  ", depth) + strings.Join(s.Categories, "/")
		fmt.Fprintf(os.Stdout, "%-5d  %-28s  %-11s  %-7s  %s\n",
			s.Level, name, fmt.Sprintf("%d-%d", s.Content.Start, s.Content.End),
			s.Locator().Default(), preview(s.Text, 40))
		printSections(s.Children, depth+1)
	}
}

func sectionRows(ss []*section.Section) []sectionRow {
	rows := make([]sectionRow, 0, len(ss))
	for _, s := range ss {
		rows = append(rows, sectionRow{
			Categories: s.Categories,
			Level:      int(s.Level),
			Header:     s.Header,
			Content:    s.Content,
			Default:    s.Locator().Default().String(),
			Text:       s.Text,
			Children:   sectionRows(s.Children),
		})
	}
	return rows
}

// preview shortens text to one line of at most n runes.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(strings.ReplaceAll(text, section.LineStart, " ")), " ")
	r := []rune(text)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return text
}

// openNote reads a note file and builds a Document with the configured
// header and laterality tables.
func openNote(cmd *cobra.Command, path string) (*document.Document, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	docCfg := cfg.Extraction.Document
	docCfg.HeadersFile = stringFlag(cmd, "headers", docCfg.HeadersFile)

	opts, err := document.OptionsFromConfig(docCfg)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", path, err)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return document.New(string(data), append(opts, document.WithID(id))...), nil
}

func init() {
	sectionsCmd.Flags().String("view", "full", "view to segment: full, no_history or no_oct")
	sectionsCmd.Flags().String("headers", "", "YAML header table replacing the built-in one")
	sectionsCmd.Flags().Bool("json", false, "output sections as JSON")

	rootCmd.AddCommand(sectionsCmd)
}

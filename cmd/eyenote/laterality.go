// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/eyenote/internal/document"
	"github.com/pdiddy/eyenote/internal/negation"
)

var lateralityCmd = &cobra.Command{
	Use:   "laterality <note.txt> [<start> <end>]",
	Short: "Resolve the eye and negation of a span in a note",
	Long: `Laterality reports which eye a span of a note refers to and whether it
is negated. Give the span as byte offsets, or use --find to take the first
occurrence of a phrase. The span is resolved inside the innermost section
that contains it, the same way extract does.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("find") {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	RunE: runLaterality,
}

func runLaterality(cmd *cobra.Command, args []string) error {
	viewName, _ := cmd.Flags().GetString("view")
	kind, err := document.ParseKind(viewName)
	if err != nil {
		return err
	}

	doc, err := openNote(cmd, args[0])
	if err != nil {
		return err
	}
	view := doc.View(kind)
	text := view.Text()

	start, end, err := spanArgs(cmd, args, text)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	resolver, err := negation.FromConfig(cfg.Extraction.Negation)
	if err != nil {
		return err
	}

	scope := view.At(start)
	name := scope.Name()
	if name == "" {
		name = "(whole note)"
	}
	neg := resolver.Negated(text, start, end)

	fmt.Fprintf(os.Stdout, "Span:       %d-%d %q\n", start, end, text[start:end])
	fmt.Fprintf(os.Stdout, "Section:    %s (%d-%d)\n", name, scope.Span.Start, scope.Span.End)
	fmt.Fprintf(os.Stdout, "Laterality: %s\n", scope.Locator.GetByIndex(start, end))
	if neg != "" {
		fmt.Fprintf(os.Stdout, "Negation:   %s\n", neg)
	} else {
		fmt.Fprintf(os.Stdout, "Negation:   none\n")
	}

	showCues, _ := cmd.Flags().GetBool("cues")
	if showCues {
		fmt.Fprintf(os.Stdout, "\nCues in scope (default %s):\n", scope.Locator.Default())
		for _, c := range scope.Locator.Cues() {
			heading := ""
			if c.SectionStart {
				heading = " heading"
			}
			fmt.Fprintf(os.Stdout, "  %5d-%-5d %-3s %q%s\n", c.Start, c.End, c.Laterality, text[c.Start:c.End], heading)
		}
	}
	return nil
}

// spanArgs returns the span named on the command line, validated against
// text.
func spanArgs(cmd *cobra.Command, args []string, text string) (int, int, error) {
	if cmd.Flags().Changed("find") {
		phrase, _ := cmd.Flags().GetString("find")
		if phrase == "" {
			return 0, 0, errors.New("--find needs a non-empty phrase")
		}
		i := strings.Index(strings.ToLower(text), strings.ToLower(phrase))
		if i < 0 {
			return 0, 0, fmt.Errorf("phrase %q not found in note", phrase)
		}
		return i, i + len(phrase), nil
	}

	start, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start offset %q: %w", args[1], err)
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end offset %q: %w", args[2], err)
	}
	if start < 0 || end > len(text) || start >= end {
		return 0, 0, fmt.Errorf("span %d-%d out of range for note of %d bytes", start, end, len(text))
	}
	return start, end, nil
}

func init() {
	lateralityCmd.Flags().String("find", "", "resolve the first occurrence of this phrase instead of offsets")
	lateralityCmd.Flags().String("view", "full", "view to resolve in: full, no_history or no_oct")
	lateralityCmd.Flags().String("headers", "", "YAML header table replacing the built-in one")
	lateralityCmd.Flags().Bool("cues", false, "list the laterality cues in the section")

	rootCmd.AddCommand(lateralityCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/eyenote/internal/extract"
	"github.com/pdiddy/eyenote/pkg/types"
)

// Export holds the findings written by ExportYAML and ExportJSON,
// together with their per-eye summary.
type Export struct {
	Findings []types.Finding    `json:"findings" yaml:"findings"`
	Summary  []types.EyeSummary `json:"summary" yaml:"summary"`
}

const exportLimit = 1000000

// ExportYAML writes findings to dataDir/index/export.yaml. It supports
// the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	export, err := s.export(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(s.ExportPath("yaml"), data, 0o644)
}

// ExportJSON writes findings to dataDir/index/export.json. It supports
// the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	export, err := s.export(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(s.ExportPath("json"), data, 0o644)
}

// ExportPath returns where an export in format ("yaml" or "json") is
// written.
func (s *Store) ExportPath(format string) string {
	return filepath.Join(s.dataDir, indexDir, "export."+format)
}

func (s *Store) export(ctx context.Context, opts QueryOptions) (*Export, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	findings, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if findings == nil {
		findings = []types.Finding{}
	}
	summary := extract.Summarize(findings)
	if summary == nil {
		summary = []types.EyeSummary{}
	}
	return &Export{Findings: findings, Summary: summary}, nil
}

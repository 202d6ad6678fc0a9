// Package project loads project tables from YAML, JSON or HCL files.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshharrison/critpath/internal/graph"
	"github.com/joshharrison/critpath/internal/logging"
)

// ErrUnknownFormat is returned for files whose format cannot be inferred.
var ErrUnknownFormat = errors.New("unknown project format")

// Format is a project file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// Project is a named table of activity rows.
type Project struct {
	Name string
	Rows []graph.Row
}

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads and parses a project file. Projects without a name are named
// after the file.
func Load(ctx context.Context, path string) (*Project, error) {
	logger := logging.FromContext(ctx)

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	logger.Debug("parsing project file", "path", path, "format", format)
	p, err := Parse(data, format, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	for _, r := range p.Rows {
		if r.Duration < 0 {
			logger.Warn("activity has a negative duration", "project", p.Name, "activity", r.ID, "duration", r.Duration)
		}
	}
	logger.Debug("loaded project", "project", p.Name, "activities", len(p.Rows))
	return p, nil
}

// Parse decodes project bytes in the given format. filename is used in HCL
// diagnostics only.
func Parse(data []byte, format Format, filename string) (*Project, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON:
		return parseJSON(data)
	case FormatHCL:
		return parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Sample returns the demonstration project used when no file is given.
func Sample() *Project {
	return &Project{
		Name: "sample",
		Rows: []graph.Row{
			{ID: "A", Duration: 2, Precedence: "-"},
			{ID: "B", Duration: 6, Precedence: "K,L"},
			{ID: "C", Duration: 10, Precedence: "N"},
			{ID: "D", Duration: 6, Precedence: "C"},
			{ID: "E", Duration: 4, Precedence: "C"},
			{ID: "F", Duration: 5, Precedence: "E"},
			{ID: "G", Duration: 7, Precedence: "D"},
			{ID: "H", Duration: 9, Precedence: "E,G"},
			{ID: "I", Duration: 7, Precedence: "C"},
			{ID: "J", Duration: 8, Precedence: "F, I"},
			{ID: "K", Duration: 4, Precedence: "J"},
			{ID: "L", Duration: 5, Precedence: "J"},
			{ID: "M", Duration: 2, Precedence: "H"},
			{ID: "N", Duration: 4, Precedence: "A"},
		},
	}
}

// Package export serializes a finished full-compare result to a report
// document the caller writes to a user-chosen path. JSON is the core
// format; YAML is a supplemented alternative for headless CLI use,
// selected by file extension or an explicit format argument.
package export

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"splitcmd/internal/apperr"
	"splitcmd/internal/model"
)

const reportVersion = "1.0.0"

// Report is the on-disk shape of a comparison export.
type Report struct {
	Version     string               `json:"version" yaml:"version"`
	GeneratedAt string               `json:"generatedAt" yaml:"generatedAt"`
	LeftRoot    string               `json:"leftRoot" yaml:"leftRoot"`
	RightRoot   string               `json:"rightRoot" yaml:"rightRoot"`
	Mode        model.CompareMode    `json:"mode" yaml:"mode"`
	Summary     model.CompareSummary `json:"summary" yaml:"summary"`
	Items       []model.DiffItem     `json:"items" yaml:"items"`
}

// Format selects the on-disk encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Build assembles a Report from a finished comparison. generatedAt is
// passed in rather than computed here (RFC3339 string) so the export
// stays reproducible for tests.
func Build(leftRoot, rightRoot string, mode model.CompareMode, summary model.CompareSummary, items []model.DiffItem, generatedAt time.Time) Report {
	return Report{
		Version:     reportVersion,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		LeftRoot:    leftRoot,
		RightRoot:   rightRoot,
		Mode:        mode,
		Summary:     summary,
		Items:       items,
	}
}

// WriteToFile encodes report in format and writes it to path.
func WriteToFile(report Report, path string, format Format) error {
	var data []byte
	var err error

	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return apperr.Wrap(apperr.InternalError, "failed to encode report", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperr.Wrap(apperr.IoFailed, "failed to write report to "+path, err)
	}
	return nil
}

// FormatFromPath infers the export format from path's extension,
// defaulting to JSON when the extension is absent or unrecognized.
func FormatFromPath(path string) Format {
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return FormatYAML
	default:
		return FormatJSON
	}
}

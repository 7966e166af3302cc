package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"splitcmd/internal/model"
)

func TestBuildAndWriteJSON(t *testing.T) {
	summary := model.CompareSummary{TotalLeft: 1, TotalRight: 1, Same: 1}
	items := []model.DiffItem{{RelPath: "a.txt", DiffKind: model.DiffSame}}
	report := Build("/left", "/right", model.ModeSmart, summary, items, time.Unix(0, 0))

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteToFile(report, path, FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, report.LeftRoot, decoded.LeftRoot)
	require.Equal(t, report.Summary, decoded.Summary)
	require.Equal(t, report.Items, decoded.Items)
}

func TestWriteToFileYAML(t *testing.T) {
	report := Build("/left", "/right", model.ModeStructure, model.CompareSummary{}, nil, time.Unix(0, 0))
	path := filepath.Join(t.TempDir(), "report.yaml")

	require.NoError(t, WriteToFile(report, path, FormatYAML))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "leftRoot")
}

func TestFormatFromPath(t *testing.T) {
	require.Equal(t, FormatYAML, FormatFromPath("out.yaml"))
	require.Equal(t, FormatYAML, FormatFromPath("out.yml"))
	require.Equal(t, FormatJSON, FormatFromPath("out.json"))
	require.Equal(t, FormatJSON, FormatFromPath("out"))
}

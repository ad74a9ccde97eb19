package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HinaTK/daily-stock-analysis/pkg/pipeline"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	report := &pipeline.Report{
		RunID:     "3f2c9a1e-0000-0000-0000-000000000000",
		TradeDate: "2025-06-11",
		StartedAt: time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC),
		Tasks: []*pipeline.Task{
			{Symbol: "600519", Status: pipeline.StatusNotified},
		},
		Completed: 1,
	}

	path, err := w.WriteReport(report)
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))
	require.Contains(t, filepath.Base(path), "run_20250611_093000_3f2c9a1e")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded pipeline.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, report.RunID, decoded.RunID)
	require.Equal(t, 1, decoded.Completed)
	require.Len(t, decoded.Tasks, 1)
}

func TestWriteReportNil(t *testing.T) {
	w := NewWriter(t.TempDir())
	_, err := w.WriteReport(nil)
	require.Error(t, err)
}

func TestWriteNamed(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.nowFn = func() time.Time { return time.Date(2025, 6, 11, 16, 0, 0, 0, time.UTC) }

	path, err := w.WriteNamed("sectors", map[string]int{"boards": 10})
	require.NoError(t, err)
	require.Equal(t, "sectors_20250611_160000.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 10, decoded["boards"])

	_, err = w.WriteNamed("sectors", nil)
	require.Error(t, err)
}

func TestNewWriterCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")
	NewWriter(dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

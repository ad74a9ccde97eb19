// Package journal persists finished batch reports as JSON files for audit.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HinaTK/daily-stock-analysis/pkg/pipeline"
)

// Writer persists batch reports to a directory, one file per run.
type Writer struct {
	dir   string
	nowFn func() time.Time
}

// NewWriter constructs a journal writer, creating the directory if needed.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteReport writes a report to a timestamped JSON file and returns its path.
func (w *Writer) WriteReport(report *pipeline.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("journal: nil report")
	}

	ts := report.StartedAt
	if ts.IsZero() {
		ts = w.nowFn()
	}
	name := fmt.Sprintf("run_%s_%s.json", ts.UTC().Format("20060102_150405"), shortID(report.RunID))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteNamed writes any JSON-serializable payload under a timestamped
// file with the given prefix, for side artifacts like the sector sweep.
func (w *Writer) WriteNamed(prefix string, v interface{}) (string, error) {
	if v == nil {
		return "", fmt.Errorf("journal: nil payload")
	}

	name := fmt.Sprintf("%s_%s.json", prefix, w.nowFn().UTC().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

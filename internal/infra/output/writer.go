// Package output writes chart tables as CSV files, keeps the run log and optionally
// publishes the files to S3-compatible object storage.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"foodsecurity-charts/internal/domain/table"
)

// RunLogName is the append-only file listing successful run timestamps.
const RunLogName = "updates.csv"

// RunLogLayout formats run log timestamps.
const RunLogLayout = "2006-01-02 15:04:05.000000"

// Writer writes tables into one directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores t as {dir}/{name}.csv and returns the path. The file is written to a
// temporary name first so readers never see a partial chart.
func (w *Writer) Write(t *table.Table) (string, error) {
	if t.Name == "" {
		return "", errors.New("table has no name")
	}
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.dir, t.Name+".csv")
	tmp, err := os.CreateTemp(w.dir, "."+t.Name+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", t.Name, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	cw := csv.NewWriter(tmp)
	if err := cw.Write(t.Columns); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s header: %w", t.Name, err)
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s rows: %w", t.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", t.Name, err)
	}
	// #nosec G302 -- chart files are published artifacts
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", t.Name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move %s into place: %w", t.Name, err)
	}
	return path, nil
}

// AppendRunLog appends one row holding at to {dir}/updates.csv.
func (w *Writer) AppendRunLog(at time.Time) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, RunLogName)
	// #nosec G304 -- path is built from the configured output directory
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{at.Format(RunLogLayout)}); err != nil {
		_ = f.Close()
		return fmt.Errorf("append run log: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("append run log: %w", err)
	}
	return f.Close()
}

// Package report persists audit artifacts to the output directory.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// FileWriter implements output.ReportWriter on the local filesystem.
// Files are written to a temporary name and renamed into place, so a
// failed run never leaves a truncated report behind.
type FileWriter struct {
	dir string
}

// NewFileWriter creates a writer for the output directory. The directory
// is created on first write.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{dir: dir}
}

// Path returns the full path for a file name.
func (w *FileWriter) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteTable writes a table as UTF-8 CSV with a header row.
func (w *FileWriter) WriteTable(_ context.Context, name string, table domain.Table) error {
	return w.write(name, func(f *os.File) error {
		cw := csv.NewWriter(f)
		if err := cw.Write(table.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(table.Rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

// WriteDocument writes raw bytes.
func (w *FileWriter) WriteDocument(_ context.Context, name string, body []byte) error {
	return w.write(name, func(f *os.File) error {
		_, err := f.Write(body)
		return err
	})
}

// WriteYAML marshals v as YAML.
func (w *FileWriter) WriteYAML(_ context.Context, name string, v any) error {
	return w.write(name, func(f *os.File) error {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	})
}

// Remove deletes a previously written artifact.
func (w *FileWriter) Remove(_ context.Context, name string) error {
	path := w.Path(name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.WriteError{Path: path, Err: err}
	}
	return nil
}

func (w *FileWriter) write(name string, fill func(*os.File) error) error {
	path := w.Path(name)
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return &domain.WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil { //#nosec G302 -- reports are meant to be shared
		return &domain.WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &domain.WriteError{Path: path, Err: fmt.Errorf("replacing file: %w", err)}
	}
	return nil
}

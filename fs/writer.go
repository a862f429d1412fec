// Package fs provides file-based storage for exported reports.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/casegen"
)

// Ensure Writer implements casegen.ReportWriter at compile time.
var _ casegen.ReportWriter = (*Writer)(nil)

// Writer writes reports as files below a base directory. Each file is
// written to a temporary sibling first and renamed into place, so readers
// never see a partial report.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write stores data at baseDir/name and returns the full path.
// name must be relative and stay inside the base directory.
func (w *Writer) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel, err := cleanName(name)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(w.baseDir, rel)

	// Create parent directories
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(rel)+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("commit %s: %w", name, err)
	}
	return fullPath, nil
}

func cleanName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", casegen.Errorf(casegen.EINVALID, "report name required")
	}
	if filepath.IsAbs(name) {
		return "", casegen.Errorf(casegen.EINVALID, "report name %q must be relative", name)
	}
	rel := filepath.Clean(name)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", casegen.Errorf(casegen.EINVALID, "report name %q escapes the output directory", name)
	}
	return rel, nil
}

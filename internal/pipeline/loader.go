package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/couchcryptid/virgo-snana-etl/internal/snana"
	"github.com/spf13/afero"
)

// SNANALoader writes light curves below an output directory.
type SNANALoader struct {
	fsys      afero.Fs
	outputDir string
}

// NewSNANALoader creates a loader writing to outputDir on fsys.
func NewSNANALoader(fsys afero.Fs, outputDir string) *SNANALoader {
	return &SNANALoader{fsys: fsys, outputDir: outputDir}
}

// Reset removes and recreates the output directory so a run never mixes
// with files from an earlier one.
func (l *SNANALoader) Reset(_ context.Context) error {
	dir := filepath.Clean(l.outputDir)
	if dir == "." || dir == string(filepath.Separator) || dir == "" {
		return errors.New("refusing to reset output directory " + l.outputDir)
	}
	if err := l.fsys.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove output dir: %w", err)
	}
	if err := l.fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// Load writes lc to <outputDir>/<SNID>/Photometry/<SNID>.photometry.snana.dat
// and returns the path.
func (l *SNANALoader) Load(_ context.Context, lc snana.LightCurve) (string, error) {
	var buf bytes.Buffer
	if err := snana.Write(&buf, lc); err != nil {
		return "", fmt.Errorf("encode %s: %w", lc.SNID, err)
	}

	path := snana.Path(l.outputDir, lc.SNID)
	if err := l.fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(l.fsys, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

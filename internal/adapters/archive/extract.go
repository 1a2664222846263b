// Package archive unpacks the installer archives published with TeX Live.
package archive

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/nlepage/go-tarfs"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Extractor unpacks .tar.gz, .tgz and .zip archives.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks archive into dest, which must not contain any of the
// archive's entries yet.
func (e *Extractor) Extract(ctx context.Context, archive, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	name := strings.ToLower(archive)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return extractTarGz(archive, dest)
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archive, dest)
	default:
		return fmt.Errorf("unsupported archive format: %s", archive)
	}
}

func extractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	fsys, err := tarfs.New(gz)
	if err != nil {
		return fmt.Errorf("unable to create tarfs: %w", err)
	}
	return copyFS(dest, fsys)
}

func extractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()
	return copyFS(dest, &r.Reader)
}

func copyFS(dest string, fsys fs.FS) error {
	if err := os.CopyFS(dest, fsys); err != nil {
		return fmt.Errorf("failed to extract into %s: %w", dest, err)
	}
	return nil
}

// Ensure Extractor implements ports.Extractor.
var _ ports.Extractor = (*Extractor)(nil)

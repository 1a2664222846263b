package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// TexDirBuilder builds a minimal TeX Live installation directory.
type TexDirBuilder struct {
	packages []string
	files    map[string]string
}

// NewTexDirBuilder creates a builder for an empty installation.
func NewTexDirBuilder() *TexDirBuilder {
	return &TexDirBuilder{files: make(map[string]string)}
}

// WithPackage records a package in the package database. An empty version
// omits the catalogue version.
func (b *TexDirBuilder) WithPackage(name, category, revision, version string) *TexDirBuilder {
	var p strings.Builder
	fmt.Fprintf(&p, "name %s\ncategory %s\nrevision %s\n", name, category, revision)
	if version != "" {
		fmt.Fprintf(&p, "catalogue-version %s\n", version)
	}
	b.packages = append(b.packages, p.String())
	return b
}

// WithBinDir adds an executable stub to bin/<arch>.
func (b *TexDirBuilder) WithBinDir(arch string, programs ...string) *TexDirBuilder {
	for _, prog := range programs {
		b.files["bin/"+arch+"/"+prog] = "#!/bin/sh\n"
	}
	return b
}

// WithFile adds a file at the slash-separated path rel.
func (b *TexDirBuilder) WithFile(rel, content string) *TexDirBuilder {
	b.files[rel] = content
	return b
}

// Database renders the package database.
func (b *TexDirBuilder) Database() string {
	return strings.Join(b.packages, "\n")
}

// Build writes the installation to dir and returns dir.
func (b *TexDirBuilder) Build(t testing.TB, dir string) string {
	t.Helper()

	files := make(map[string]string, len(b.files)+1)
	for rel, content := range b.files {
		files[rel] = content
	}
	if len(b.packages) > 0 {
		files["tlpkg/texlive.tlpdb"] = b.Database()
	}
	WriteTree(t, dir, files)
	return filepath.Clean(dir)
}

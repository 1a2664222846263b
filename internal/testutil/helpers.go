// Package testutil provides test helpers for TeX Live installations on disk.
package testutil

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file from the embedded fixtures directory.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()

	data, err := fixturesFS.ReadFile("fixtures/" + name)
	require.NoError(t, err, "failed to load fixture: %s", name)
	return data
}

// WriteFixtureToDir writes a fixture to dir under destName and returns its
// path.
func WriteFixtureToDir(t testing.TB, dir, fixtureName, destName string) string {
	t.Helper()

	return WriteTree(t, dir, map[string]string{destName: string(LoadFixture(t, fixtureName))})[0]
}

// WriteTree creates files below root, keyed by slash-separated relative
// path, and returns their paths in no particular order.
func WriteTree(t testing.TB, root string, files map[string]string) []string {
	t.Helper()

	paths := make([]string, 0, len(files))
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return paths
}

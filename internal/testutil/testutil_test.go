package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadFixture(t *testing.T) {
	t.Parallel()

	data := LoadFixture(t, "texlive.tlpdb")
	assert.Contains(t, string(data), "name hyperref")
}

func TestTexDirBuilder(t *testing.T) {
	t.Parallel()

	dir := NewTexDirBuilder().
		WithPackage("hyperref", "Package", "65758", "7.00v").
		WithPackage("kpathsea", "TLCore", "66203", "").
		WithBinDir("x86_64-linux", "tlmgr").
		WithFile("texmf-var/web2c/fmtutil.log", "").
		Build(t, filepath.Join(t.TempDir(), "2022"))

	assert.FileExists(t, filepath.Join(dir, "bin", "x86_64-linux", "tlmgr"))
	assert.FileExists(t, filepath.Join(dir, "texmf-var", "web2c", "fmtutil.log"))
	AssertFileEquals(t, filepath.Join(dir, "tlpkg", "texlive.tlpdb"),
		"name hyperref\ncategory Package\nrevision 65758\ncatalogue-version 7.00v\n"+
			"\n"+
			"name kpathsea\ncategory TLCore\nrevision 66203\n")
}

func TestAssertYAMLFileEquals(t *testing.T) {
	t.Parallel()

	path := WriteTree(t, t.TempDir(), map[string]string{"state.yaml": "post: true\nkey: abc\n"})[0]
	AssertYAMLFileEquals(t, path, "key: abc\npost: true")
	AssertFileContains(t, path, "key: abc")
}

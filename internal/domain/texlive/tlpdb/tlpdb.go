// Package tlpdb reads the TeX Live package database (texlive.tlpdb).
//
// The database is a sequence of blank-line separated paragraphs. Each
// paragraph starts with a "name" line followed by "key value" fields;
// continuation lines start with a space and are ignored here.
package tlpdb

import (
	"bytes"
	"io"
	"iter"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Package is an installable package listed in the database.
type Package struct {
	Name string
	// Version is the catalogue version, if the package has one.
	Version *string
	// Revision is the TeX Live revision number.
	Revision string
}

// Categories that group other packages rather than ship files.
const (
	categoryScheme     = "Scheme"
	categoryCollection = "Collection"
)

const metadataPrefix = "00texlive"

// archSuffix matches platform-specific package names such as
// "texlive.infra.x86_64-linux" or "dvipdfmx.win32".
var archSuffix = regexp.MustCompile(`^.+\.(?:[a-z0-9_]+-[a-z0-9_]+|win32|win64|windows)$`)

type paragraph struct {
	name     string
	category string
	revision string
	version  *string
}

func (p *paragraph) listed() bool {
	switch {
	case p.category == categoryScheme, p.category == categoryCollection:
		return false
	case strings.HasPrefix(p.name, metadataPrefix):
		return false
	case archSuffix.MatchString(p.name):
		return false
	default:
		return true
	}
}

// Parse lazily yields the packages described by text. Schemes,
// collections, platform-specific packages and database metadata are
// skipped. A malformed paragraph yields a parse error and ends the
// sequence. Each call to the returned sequence parses text from the start.
func Parse(text string) iter.Seq2[Package, error] {
	return func(yield func(Package, error) bool) {
		text := strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\\\n", "")

		var cur *paragraph
		emit := func() bool {
			p := cur
			cur = nil
			if p == nil || !p.listed() {
				return true
			}
			return yield(Package{Name: p.name, Version: p.version, Revision: p.revision}, nil)
		}

		lineNo := 0
		for line := range strings.SplitSeq(text, "\n") {
			lineNo++
			if strings.TrimSpace(line) == "" {
				if !emit() {
					return
				}
				continue
			}
			if i := strings.IndexByte(line, '#'); i >= 0 {
				line = line[:i]
				if strings.TrimSpace(line) == "" {
					continue
				}
			}
			if line[0] == ' ' {
				continue
			}

			key, value, _ := strings.Cut(strings.TrimRight(line, " \t"), " ")
			if cur == nil {
				if key != "name" || strings.TrimSpace(value) == "" {
					yield(Package{}, fault.Parse("expected a package name, found %q", line).
						WithContext("texlive.tlpdb line "+strconv.Itoa(lineNo)))
					return
				}
				cur = &paragraph{name: strings.TrimSpace(value)}
				continue
			}

			switch key {
			case "category":
				cur.category = value
			case "revision":
				cur.revision = value
			case "catalogue-version":
				v := value
				cur.version = &v
			}
		}
		emit()
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Package, error]) ([]Package, error) {
	var pkgs []Package
	for pkg, err := range seq {
		if err != nil {
			return pkgs, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// Open reads the database at path, decompressing it when the name ends
// in ".xz", and returns its packages.
func Open(fsys ports.FileSystem, path string) (iter.Seq2[Package, error], error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fault.Parse("failed to read package database").WithContext(path).Wrap(err)
	}
	if filepath.Ext(path) == ".xz" {
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fault.Parse("failed to decompress package database").WithContext(path).Wrap(err)
		}
		if data, err = io.ReadAll(r); err != nil {
			return nil, fault.Parse("failed to decompress package database").WithContext(path).Wrap(err)
		}
	}
	return Parse(string(data)), nil
}

// Path returns the location of the installed database below texdir.
func Path(texdir string) string {
	return filepath.Join(texdir, "tlpkg", "texlive.tlpdb")
}

// Package depends reads package lists written as plain whitespace-separated
// names or in the DEPENDS.txt format used by CTAN and the TeX Live
// infrastructure.
//
//	# comment
//	hard amsmath xcolor
//	soft hyperref
//	package tikz-cd
//	hard pgf
package depends

import (
	"slices"
	"strings"
)

// Kind tells whether a dependency is required.
type Kind string

// Dependency kinds.
const (
	Hard Kind = "hard"
	Soft Kind = "soft"
)

// Dependency is a single entry of a package list.
type Dependency struct {
	Name string
	Kind Kind
	// Package is the package that declared the dependency, if any.
	Package string
}

// Parse returns the dependencies listed in text in order of appearance.
// Bare names are treated as hard dependencies.
func Parse(text string) []Dependency {
	var (
		deps    []Dependency
		current string
	)
	for _, line := range strings.Split(text, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		kind := Hard
		switch fields[0] {
		case "package":
			if len(fields) > 1 {
				current = fields[1]
			}
			continue
		case string(Hard):
			fields = fields[1:]
		case string(Soft):
			kind = Soft
			fields = fields[1:]
		}
		for _, name := range fields {
			deps = append(deps, Dependency{Name: name, Kind: kind, Package: current})
		}
	}
	return deps
}

// Names returns the sorted, de-duplicated names of all dependencies found in
// the given texts.
func Names(texts ...string) []string {
	var names []string
	for _, text := range texts {
		for _, d := range Parse(text) {
			names = append(names, d.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

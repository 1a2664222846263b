// Package tlpkg maintains the Perl infrastructure shipped in the tlpkg
// directory of an installation.
package tlpkg

import (
	"context"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Options select the patches to apply.
type Options struct {
	TexDir   string
	Version  texlive.Version
	Platform texlive.Platform
}

type replacement struct {
	search  *regexp.Regexp
	replace string
	literal bool
}

func literal(search, replace string) replacement {
	return replacement{search: regexp.MustCompile(regexp.QuoteMeta(search)), replace: replace, literal: true}
}

// rule patches file for releases in [since, until) on the given platforms
// (all platforms when empty).
type rule struct {
	description  string
	file         string
	since        int
	until        int
	platforms    []texlive.Platform
	replacements []replacement
}

var rules = []rule{
	{
		description: "Fixes a syntax error",
		file:        "tlpkg/TeXLive/TLWinGoo.pm",
		since:       2009,
		until:       2011,
		replacements: []replacement{
			{search: regexp.MustCompile(`foreach \$p qw\((.*)\)`), replace: `foreach $$p (qw($1))`},
		},
	},
	{
		description: "Defines Code Page 65001 as an alias for UTF-8",
		file:        "tlpkg/tlperl/lib/Encode/Alias.pm",
		since:       2015,
		until:       2016,
		platforms:   []texlive.Platform{texlive.Windows},
		replacements: []replacement{
			literal("# utf8 is blessed :)\n", "# utf8 is blessed :)\n    define_alias(qr/cp65001/i => '\"utf-8-strict\"');\n"),
		},
	},
	{
		description: "Makes it possible to use `\\` as a directory separator",
		file:        "tlpkg/TeXLive/TLUtils.pm",
		until:       2019,
		platforms:   []texlive.Platform{texlive.Windows},
		replacements: []replacement{
			literal(`split (/\//, $tree)`, `split (/[\/\\]/, $tree)`),
		},
	},
	{
		description: "Adds support for macOS 11 or later",
		file:        "tlpkg/TeXLive/TLUtils.pm",
		since:       2017,
		until:       2020,
		platforms:   []texlive.Platform{texlive.Darwin},
		replacements: []replacement{
			literal(`$os_major != 10`, `$os_major < 10`),
			literal(`$os_minor >= $mactex_darwin`, `$os_major > 10 || $os_minor >= $mactex_darwin`),
		},
	},
}

func (r rule) matches(opts Options) bool {
	if r.since != 0 && opts.Version.Before(r.since) {
		return false
	}
	if r.until != 0 && opts.Version.AtLeast(r.until) {
		return false
	}
	return len(r.platforms) == 0 || slices.Contains(r.platforms, opts.Platform)
}

// Patch fixes known bugs in the infrastructure of older releases. Only the
// rules matching the version and platform run; a matching rule whose
// target file is missing is an error.
func Patch(ctx context.Context, fs ports.FileSystem, logger ports.Logger, opts Options) error {
	for _, r := range rules {
		if !r.matches(opts) {
			continue
		}
		if err := apply(ctx, fs, logger, opts.TexDir, r); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, fs ports.FileSystem, logger ports.Logger, texdir string, r rule) error {
	target := filepath.Join(texdir, filepath.FromSlash(r.file))
	logger.Info(ctx, "Applying patch", ports.F("file", r.file), ports.F("reason", r.description))

	data, err := fs.ReadFile(target)
	if err != nil {
		return fault.Patch("failed to read %s", r.file).WithContext(target).Wrap(err)
	}

	content := string(data)
	for _, rep := range r.replacements {
		if !rep.search.MatchString(content) {
			logger.Debug(ctx, "Patch pattern not found", ports.F("file", r.file), ports.F("pattern", rep.search.String()))
			continue
		}
		if rep.literal {
			content = rep.search.ReplaceAllLiteralString(content, rep.replace)
		} else {
			content = rep.search.ReplaceAllString(content, rep.replace)
		}
	}

	if err := fs.WriteFile(target, []byte(content), 0o644); err != nil {
		return fault.Patch("failed to write %s", r.file).WithContext(target).Wrap(err)
	}
	return nil
}

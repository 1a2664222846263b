package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/config"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/tlmgr"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/tlpdb"
	"github.com/felixgeelhaar/setup-texlive/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List the packages recorded in the package database of an
installation. Schemes and collections are omitted.`,
	Example: `  setup-texlive list --version 2022
  setup-texlive list --texdir /opt/texlive/2022`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	f := listCmd.Flags()
	f.String(config.KeyPrefix, "", "installation prefix (default: $TEXLIVE_INSTALL_PREFIX)")
	f.String(config.KeyTexDir, "", "installation directory (default: <prefix>/<version>)")
	f.String(config.KeyVersion, texlive.LatestAlias, "TeX Live release year or \"latest\"")
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e := newEnv(cmd.OutOrStdout(), os.Stderr)

	raw, err := load(cmd)
	if err != nil {
		return err
	}
	raw.Cache = false
	in, err := e.resolve(ctx, raw)
	if err != nil {
		return err
	}
	manager := tlmgr.New(e.runner, e.workflow, e.fs, in.Version, in.Prefix, tlmgr.WithTexDir(in.TexDir))
	packages, err := manager.List(ctx)
	if err != nil {
		return err
	}

	styles := ui.Plain()
	if isTerminal(cmd.OutOrStdout()) && !color.NoColor {
		styles = ui.DefaultStyles()
	}
	return printPackages(cmd.OutOrStdout(), styles, manager.TexDir(), packages)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printPackages writes packages as a table below a title naming texdir.
func printPackages(w io.Writer, styles ui.Styles, texdir string, packages []tlpdb.Package) error {
	_, _ = fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf("%d packages in %s", len(packages), texdir)))
	_, _ = fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n",
		styles.Header.Render("NAME"),
		styles.Header.Render("VERSION"),
		styles.Header.Render("REVISION"),
	)
	for _, p := range packages {
		v := styles.Muted.Render("-")
		if p.Version != nil {
			v = *p.Version
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, v, p.Revision)
	}
	return tw.Flush()
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/setup-texlive/internal/adapters/logging"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/workflow"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "setup-texlive",
	Short: "Provision TeX Live in CI jobs",
	Long: `setup-texlive installs a TeX Live release on a CI runner.

The run step restores the installation from the cache or installs it with
install-tl, then adds the requested packages with tlmgr. The post step saves
a new installation to the cache for later jobs.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML file with inputs")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(runCmd, postCmd, listCmd, versionCmd)
}

// newLogger builds the logger selected by the global flags. Inside GitHub
// Actions warnings and errors become annotations and timestamps are left to
// the runner.
func newLogger(w io.Writer) ports.Logger {
	actions := os.Getenv(workflow.EnvActions) == "true"

	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}

	logger := logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(logFormat == "json"),
		logging.WithTimestamp(!actions),
		logging.WithAnnotations(actions),
	)
	if logFormat == "json" {
		return logger.With(ports.F("run_id", uuid.NewString()))
	}
	return logger
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var fe *fault.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if fe.Context != "" {
			msg += fmt.Sprintf(" (at %s)", fe.Context)
		}
		if fe.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", fe.Suggestion)
		}
		if verbose && fe.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", fe.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

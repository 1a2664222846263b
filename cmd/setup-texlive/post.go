package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Save the installation to the cache",
	Long: `Save the installation created by the run step of this job to the
cache. Runs as the post step of the action; cache errors are reported as
warnings only.`,
	Args: cobra.NoArgs,
	RunE: runPost,
}

func runPost(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e := newEnv(cmd.OutOrStdout(), os.Stderr)
	return e.service().Post(ctx)
}

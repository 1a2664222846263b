package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCmd_WithoutMainStep(t *testing.T) {
	t.Setenv("RUNNER_TEMP", t.TempDir())
	t.Setenv("SETUP_TEXLIVE_CACHE_DIR", t.TempDir())

	rootCmd.SetArgs([]string{"post"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
}

func TestRunCmd_Flags(t *testing.T) {
	flags := runCmd.Flags()

	tests := []struct {
		name string
		def  string
	}{
		{"cache", "true"},
		{"packages", ""},
		{"package-file", ""},
		{"prefix", ""},
		{"texdir", ""},
		{"tlcontrib", "false"},
		{"update-all-packages", "false"},
		{"version", "latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

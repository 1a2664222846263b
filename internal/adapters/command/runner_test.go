package command

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/setup-texlive/internal/testutil/mocks"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRealRunner_Run(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	tests := []struct {
		name     string
		command  string
		args     []string
		exitCode int
		stdout   string
		stderr   string
	}{
		{name: "success", command: "echo", args: []string{"hello"}, stdout: "hello\n"},
		{name: "failure", command: "false", exitCode: 1},
		{name: "stderr", command: "sh", args: []string{"-c", "echo error >&2; exit 3"}, exitCode: 3, stderr: "error\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := NewRealRunner().Run(context.Background(), tt.command, tt.args...)
			require.NoError(t, err, "a non-zero exit is not an error")
			assert.Equal(t, tt.exitCode, result.ExitCode)
			assert.Equal(t, tt.stdout, result.Stdout)
			assert.Equal(t, tt.stderr, result.Stderr)
		})
	}
}

func TestRealRunner_Run_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewRealRunner().Run(context.Background(), "nonexistent-command-12345")
	assert.Error(t, err)
}

func TestRealRunner_Run_ContextCancellation(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRealRunner().Run(ctx, "sleep", "10")
	assert.Error(t, err)
}

func TestRealRunner_Options(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	var echo bytes.Buffer
	logger := mocks.NewLogger()
	runner := NewRealRunner(
		WithEcho(&echo),
		WithEnv("SETUP_TEXLIVE_TEST=tlmgr"),
		WithLogger(logger),
	)

	result, err := runner.Run(context.Background(), "sh", "-c", "echo $SETUP_TEXLIVE_TEST")
	require.NoError(t, err)

	assert.Equal(t, "tlmgr\n", result.Stdout)
	assert.Equal(t, "tlmgr\n", echo.String())
	require.Len(t, logger.Entries(), 1)
	assert.Equal(t, "Running command", logger.Entries()[0].Message)
}

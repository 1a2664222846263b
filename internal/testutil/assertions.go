package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// AssertFileContains asserts that a file contains the expected string.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	assert.Contains(t, string(content), expected, msgAndArgs...)
}

// AssertFileEquals asserts that a file contains exactly the expected content.
func AssertFileEquals(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	// Normalize line endings
	actual := strings.ReplaceAll(string(content), "\r\n", "\n")
	expected = strings.ReplaceAll(expected, "\r\n", "\n")

	assert.Equal(t, expected, actual, msgAndArgs...)
}

// AssertYAMLFileEquals asserts that a file holds YAML semantically equal to
// expected.
func AssertYAMLFileEquals(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	var expectedMap, actualMap interface{}
	require.NoError(t, yaml.Unmarshal([]byte(expected), &expectedMap), "failed to parse expected YAML")
	require.NoError(t, yaml.Unmarshal(content, &actualMap), "failed to parse actual YAML")

	assert.Equal(t, expectedMap, actualMap, msgAndArgs...)
}

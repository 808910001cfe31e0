package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-labs/lectern/internal/chunker"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "****cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "42", orDefault(42, 5))
	assert.Equal(t, "5 (default)", orDefault(0, 5))
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSettingsSetAndShow(t *testing.T) {
	configDir := t.TempDir()

	_, err := runCommand(t, "settings", "set", "embedding.provider", "ollama", "--config", configDir)
	require.NoError(t, err)

	_, err = runCommand(t, "settings", "set", "retrieval.top_k", "7", "--config", configDir)
	require.NoError(t, err)

	out, err := runCommand(t, "settings", "show", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Provider: ollama")
	assert.Contains(t, out, "Top K: 7")
}

func TestSettingsSetRejectsUnknownProvider(t *testing.T) {
	configDir := t.TempDir()

	_, err := runCommand(t, "settings", "set", "embedding.provider", "bogus", "--config", configDir)
	assert.Error(t, err)
}

func TestSettingsShowDefaults(t *testing.T) {
	out, err := runCommand(t, "settings", "show", "--config", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "ollama (default)")
	assert.Contains(t, out, "Similarity threshold: 0.50 (default)")
	assert.Contains(t, out, fmt.Sprintf("Max chunk chars: %d (default)", chunker.DefaultMaxChars))
	assert.Contains(t, out, fmt.Sprintf("Overlap chars: %d (default)", chunker.DefaultOverlapChars))
}

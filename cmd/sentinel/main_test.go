package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/config"
)

func TestApplyFlagsPrecedence(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{
		"--log", "/tmp/build.log",
		"--mode", "alert",
		"--interval", "2",
		"--ollama-model", "mistral",
	}))

	cfg := config.DefaultConfig()
	cfg.Analysis.OllamaURL = "http://ollama.internal:11434"
	applyFlags(rootCmd, cfg)

	assert.Equal(t, "/tmp/build.log", cfg.Log)
	assert.Equal(t, config.ModeAlert, cfg.Mode)
	assert.Equal(t, "2s", cfg.Watch.Interval)
	assert.Equal(t, "mistral", cfg.Analysis.OllamaModel)

	// Flags not on the command line leave file values alone.
	assert.Equal(t, "http://ollama.internal:11434", cfg.Analysis.OllamaURL)
	assert.Equal(t, config.BackendCloud, cfg.Analysis.Backend)
}

func TestSetupRejectsMalformedConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: [unclosed"), 0644))
	configFile = path
	defer func() { configFile = "" }()

	assert.Error(t, setup(rootCmd, nil))
}

func TestSetupValidatesMergedConfig(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{"--log", "/tmp/build.log", "--mode", "sideways"}))
	defer func() {
		require.NoError(t, rootCmd.ParseFlags([]string{"--mode", "observe"}))
	}()

	err := setup(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestSetupBuildsConfigAndLogger(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{"--log", "/tmp/build.log"}))

	require.NoError(t, setup(rootCmd, nil))
	require.NotNil(t, cfg)
	require.NotNil(t, logger)
	assert.Equal(t, "/tmp/build.log", cfg.Log)
}

// executeCapture runs the root command with args and returns what a user
// would see on the terminal.
func executeCapture(t *testing.T, args []string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs([]string{})
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestExecuteUnknownFlagPrintsUsage(t *testing.T) {
	out, err := executeCapture(t, []string{"--no-such-flag"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "--log")
}

func TestExecuteWithoutLogFlagPrintsUsage(t *testing.T) {
	logPath = ""
	configFile = ""

	out, err := executeCapture(t, []string{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log file configured")
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "Log file to watch (required)")
}

package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// cloudBinary is the CLI used to reach cloud models. It prints the model's
// response to stdout and exits nonzero on failure.
const cloudBinary = "llm"

// DefaultCloudModel is used when no cloud model override is configured.
const DefaultCloudModel = "gpt-4o"

// CloudCLI implements Backend using the `llm` CLI subprocess. It executes
// `llm -m <model> -s <system prompt> <snippet>` and returns stdout.
type CloudCLI struct {
	model   string
	system  string
	timeout time.Duration
}

// NewCloudCLI creates a cloud backend. Empty model falls back to
// DefaultCloudModel; a non-positive timeout falls back to two minutes.
func NewCloudCLI(model, systemPrompt string, timeout time.Duration) *CloudCLI {
	if model == "" {
		model = DefaultCloudModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CloudCLI{model: model, system: systemPrompt, timeout: timeout}
}

// Name identifies the backend and model.
func (c *CloudCLI) Name() string {
	return fmt.Sprintf("cloud (%s)", c.model)
}

// Available reports whether the CLI binary can be found. A missing binary
// is returned as a BackendUnavailableError so startup can fall back to the
// local backend.
func (c *CloudCLI) Available() error {
	if _, err := exec.LookPath(cloudBinary); err != nil {
		return &BackendUnavailableError{
			Backend: "cloud",
			Reason:  fmt.Sprintf("%q not found in PATH", cloudBinary),
		}
	}
	return nil
}

// Analyze runs the CLI with the snippet as the prompt and returns its
// stdout. Nonzero exit, a missing binary, and empty output all fail the
// call; the caller discards the batch and writes no cache entry.
func (c *CloudCLI) Analyze(ctx context.Context, snippet string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"-m", c.model}
	if strings.TrimSpace(c.system) != "" {
		args = append(args, "-s", c.system)
	}
	args = append(args, snippet)

	cmd := exec.CommandContext(ctx, cloudBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s call timed out after %v: %w", cloudBinary, c.timeout, ctx.Err())
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("%s call canceled: %w", cloudBinary, ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", &BackendUnavailableError{
				Backend: "cloud",
				Reason:  fmt.Sprintf("%q not found in PATH", cloudBinary),
			}
		}
		return "", fmt.Errorf("%s execution failed: %w (stderr: %s)", cloudBinary, err, truncate(stderr.String(), 500))
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", fmt.Errorf("empty response from %s", cloudBinary)
	}
	return text, nil
}

// truncate shortens a string to maxLen characters, adding "..." if cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

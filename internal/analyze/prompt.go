package analyze

import (
	"fmt"
	"os"
)

// defaultSystemPrompt is used when no prompt file is configured or the
// configured file does not exist. The labeled fields must stay in sync with
// ParseReport.
const defaultSystemPrompt = `You are a log sentinel analyzing snippets from a machine-setup log.
For the snippet you are given, respond with exactly these labeled lines:

Severity: one of INFO, WARN, ERROR, CRITICAL
Category: a short error category such as Network, Permission, Dependency, Storage
Pattern: the specific error pattern you detected
Suggested action: one concrete step to resolve or investigate
Learning candidate: true if this pattern belongs in a learning log, otherwise false

Keep the whole response under ten lines. No preamble, no code fences.`

// LoadSystemPrompt returns the system prompt for analysis calls: the
// contents of path when it exists, the built-in default when path is empty
// or absent. Any other read failure is an error so a typo'd --prompt flag
// does not silently change behavior.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSystemPrompt, nil
		}
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return string(data), nil
}

// Package analyze invokes external LLM backends to interpret captured log
// snippets. Two backends are supported: a cloud model reached through the
// `llm` CLI and a local model served by Ollama, plus a dual mode that runs
// both and reports their agreement.
package analyze

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Backend produces analysis text for a log snippet. Implementations block
// for the duration of the external call; the caller owns the context
// deadline policy beyond each backend's own timeout.
type Backend interface {
	// Name identifies the backend and model, e.g. "ollama (llama3)".
	Name() string
	// Analyze returns the raw analysis text for the snippet. An error means
	// the call failed and nothing should be cached.
	Analyze(ctx context.Context, snippet string) (string, error)
}

// BackendUnavailableError indicates a configured backend cannot be used at
// all: the CLI binary is missing or the local server is unreachable.
// Callers use errors.As to decide between falling back to another backend
// and refusing to start.
type BackendUnavailableError struct {
	Backend string
	Reason  string
}

// Error implements the error interface.
func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("%s backend unavailable: %s", e.Backend, e.Reason)
}

// Report is the structured part of an analysis response. Backends are
// prompted to emit these labeled fields; free-form text around them is
// preserved in Raw.
type Report struct {
	Severity          string
	Category          string
	Pattern           string
	SuggestedAction   string
	LearningCandidate bool
	Raw               string
}

// ParseReport extracts labeled fields from analysis text. The first
// occurrence of each label wins, so in combined dual-backend output the
// cloud section takes precedence. Unlabeled or missing fields stay empty;
// parsing never fails because backends drift from the requested format.
func ParseReport(text string) Report {
	r := Report{Raw: text}
	learningSet := false
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := splitField(line)
		if !ok {
			continue
		}
		switch label {
		case "severity":
			if r.Severity == "" {
				r.Severity = strings.ToUpper(value)
			}
		case "category":
			if r.Category == "" {
				r.Category = value
			}
		case "pattern", "pattern matched":
			if r.Pattern == "" {
				r.Pattern = value
			}
		case "suggested action":
			if r.SuggestedAction == "" {
				r.SuggestedAction = value
			}
		case "learning candidate":
			if !learningSet {
				r.LearningCandidate = parseBool(value)
				learningSet = true
			}
		}
	}
	return r
}

func splitField(line string) (label, value string, ok bool) {
	line = strings.TrimSpace(line)
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(line[:i])), strings.TrimSpace(line[i+1:]), true
}

func parseBool(s string) bool {
	if b, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
		return b
	}
	return strings.EqualFold(s, "yes")
}

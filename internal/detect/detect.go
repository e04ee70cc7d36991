// Package detect scans log content for error patterns and derives stable
// signatures used as dedup and cache keys.
package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// SnippetLines caps how many matching lines a single scan captures.
const SnippetLines = 5

// SignatureLength is the number of hex characters kept from the digest.
const SignatureLength = 16

var (
	// Generic failure vocabulary - what an operator would grep an
	// unfamiliar log for.
	errorPattern = regexp.MustCompile(`(?i)error|failed|warn|exception|timeout|connection refused|permission denied|not found|requires`)

	// Interactive-auth vocabulary - prompts that stall unattended
	// bootstrap runs (password entry, credential managers, biometrics).
	bootstrapPattern = regexp.MustCompile(`(?i)password|passphrase|keychain|credential|touch ?id|biometric`)
)

// Match is the result of scanning a buffer.
type Match struct {
	// Snippet holds the first SnippetLines matching lines, newline-joined.
	Snippet string
	// Lines is the total number of matching lines in the buffer.
	Lines int
}

// Found reports whether the scan hit any pattern.
func (m Match) Found() bool {
	return m.Lines > 0
}

// Detector matches log lines against a fixed pattern set. It carries no
// state between scans.
type Detector struct {
	patterns []*regexp.Regexp
}

// New returns a Detector for the given run context. A context containing
// "bootstrap" enables the interactive-auth extension set on top of the
// base patterns.
func New(runContext string) *Detector {
	patterns := []*regexp.Regexp{errorPattern}
	if strings.Contains(strings.ToLower(runContext), "bootstrap") {
		patterns = append(patterns, bootstrapPattern)
	}
	return &Detector{patterns: patterns}
}

// Scan matches buf line by line and returns the captured snippet. Identical
// input always yields an identical Match.
func (d *Detector) Scan(buf []byte) Match {
	var (
		snippet []string
		total   int
	)
	for _, line := range strings.Split(string(buf), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !d.matchLine(line) {
			continue
		}
		total++
		if len(snippet) < SnippetLines {
			snippet = append(snippet, line)
		}
	}
	if total == 0 {
		return Match{}
	}
	return Match{Snippet: strings.Join(snippet, "\n"), Lines: total}
}

func (d *Detector) matchLine(line string) bool {
	for _, re := range d.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Signature derives the dedup key for a snippet: the first SignatureLength
// hex characters of its SHA-256 digest.
func Signature(snippet string) string {
	sum := sha256.Sum256([]byte(snippet))
	return hex.EncodeToString(sum[:])[:SignatureLength]
}

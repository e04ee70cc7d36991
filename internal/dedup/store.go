package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	reportedPrefix = "error-"
	reportedSuffix = ".state"
	analysisPrefix = "analysis-"
	analysisSuffix = ".cache"
)

// DefaultDir returns the per-log state directory under the system temp dir.
// The directory name embeds a short hash of the log path so sentinels on
// different logs never share state.
func DefaultDir(logPath string) string {
	sum := sha256.Sum256([]byte(logPath))
	return filepath.Join(os.TempDir(), "sentinel-"+hex.EncodeToString(sum[:])[:8])
}

// Store persists debounce and analysis entries as flat files in a state
// directory. One file per signature: error-<sig>.state holds the last
// reported timestamp, analysis-<sig>.cache holds the raw analysis text.
// In-memory maps stay authoritative; the store exists so the
// one-analysis-per-signature invariant survives restarts.
type Store struct {
	dir string
}

// NewStore creates the state directory if needed and returns a Store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the state directory path.
func (s *Store) Dir() string {
	return s.dir
}

// LoadReported scans the state directory for persisted debounce records.
// Unreadable or unparsable entries are skipped; stale state must never stop
// a sentinel from starting.
func (s *Store) LoadReported() map[string]time.Time {
	out := make(map[string]time.Time)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		sig, ok := trimName(e.Name(), reportedPrefix, reportedSuffix)
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		out[sig] = ts
	}
	return out
}

// SaveReported persists the last-reported timestamp for a signature.
func (s *Store) SaveReported(sig string, ts time.Time) error {
	path := filepath.Join(s.dir, reportedPrefix+sig+reportedSuffix)
	content := ts.Format(time.RFC3339) + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("persist debounce record: %w", err)
	}
	return nil
}

// LoadAnalyses scans the state directory for cached analysis text.
func (s *Store) LoadAnalyses() map[string]string {
	out := make(map[string]string)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		sig, ok := trimName(e.Name(), analysisPrefix, analysisSuffix)
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		out[sig] = string(data)
	}
	return out
}

// SaveAnalysis persists analysis text for a signature.
func (s *Store) SaveAnalysis(sig, text string) error {
	path := filepath.Join(s.dir, analysisPrefix+sig+analysisSuffix)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("persist analysis cache: %w", err)
	}
	return nil
}

// DeleteAnalysis removes a persisted analysis entry. Missing files are fine.
func (s *Store) DeleteAnalysis(sig string) error {
	path := filepath.Join(s.dir, analysisPrefix+sig+analysisSuffix)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("evict analysis cache: %w", err)
	}
	return nil
}

func trimName(name, prefix, suffix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	sig := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	if sig == "" {
		return "", false
	}
	return sig, true
}

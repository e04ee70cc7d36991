// Package observe defines the observation record model and the append-only
// Markdown log the sentinel writes its findings to. Observations are never
// mutated after being appended; a session is bracketed by exactly one header
// and one trailer block.
package observe

import (
	"strings"
	"time"
)

// Severity classifies how urgent an observation is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity maps free-form text (typically from an LLM analysis) onto a
// Severity. The second return is false when the text matches no known level.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, true
	case "WARN", "WARNING":
		return SeverityWarn, true
	case "ERROR":
		return SeverityError, true
	case "CRITICAL":
		return SeverityCritical, true
	}
	return "", false
}

// Observation categories used by the sentinel itself. LLM-assigned error
// categories (Network, Permission, ...) live inside analysis bodies and are
// not constrained to this set.
const (
	CategoryLogPattern = "log-pattern"
	CategoryAnalysis   = "analysis"
	CategoryDiskSpace  = "disk-space"
	CategorySentinel   = "sentinel"
)

// Observation is a single appended record.
type Observation struct {
	Time     time.Time
	Severity Severity
	Category string

	// Message is the one-line summary rendered after the record heading.
	Message string

	// Snippet, when set, is rendered as a fenced text block (raw log lines).
	Snippet string

	// Detail, when set, is rendered verbatim (analysis output is Markdown-ish
	// already and should not be fenced).
	Detail string

	// Suggestion, when set, is rendered as a bolded action line.
	Suggestion string
}

// SessionMeta is written once per session as the header block.
type SessionMeta struct {
	SessionID string
	LogPath   string
	Mode      string
	Backend   string
	Context   string
	Interval  time.Duration
	StartedAt time.Time
}

// Summary is written once per session as the trailer block.
type Summary struct {
	StoppedAt      time.Time
	Reason         string
	Duration       time.Duration
	Observations   int
	CriticalIssues int
	AnalysisCalls  int
	CacheReplays   int
	PendingBatch   int
}

// Stats accumulates session counters. The watch loop owns one instance and
// folds it into the trailer Summary on stop.
type Stats struct {
	Observations   int
	CriticalIssues int
	AnalysisCalls  int
	CacheReplays   int
}

// Count records one appended observation.
func (s *Stats) Count(obs Observation) {
	s.Observations++
	if obs.Severity == SeverityCritical {
		s.CriticalIssues++
	}
}

package observe

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// timeLayout is used for all timestamps in the observation document.
const timeLayout = time.RFC3339

// Writer appends observation records to a Markdown file. It assumes a single
// writer per file (one sentinel per watched log) and performs no locking
// beyond the O_APPEND guarantee.
type Writer struct {
	file *os.File
	path string
}

// NewWriter opens (creating if necessary) the observation file for appending.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open observation file: %w", err)
	}
	return &Writer{file: f, path: path}, nil
}

// Path returns the observation file path.
func (w *Writer) Path() string {
	return w.path
}

// Header writes the session header block. Call exactly once, before any
// Record call.
func (w *Writer) Header(meta SessionMeta) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sentinel Session %s\n\n", meta.StartedAt.Format(timeLayout))
	fmt.Fprintf(&b, "- **Session ID:** %s\n", meta.SessionID)
	fmt.Fprintf(&b, "- **Log:** %s\n", meta.LogPath)
	fmt.Fprintf(&b, "- **Mode:** %s\n", meta.Mode)
	fmt.Fprintf(&b, "- **Backend:** %s\n", meta.Backend)
	if meta.Context != "" {
		fmt.Fprintf(&b, "- **Context:** %s\n", meta.Context)
	}
	fmt.Fprintf(&b, "- **Poll interval:** %s\n", meta.Interval)
	b.WriteString("\n---\n")
	return w.append(b.String())
}

// Record appends one observation block.
func (w *Writer) Record(obs Observation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n### %s — %s — %s\n\n",
		obs.Time.Format(timeLayout), obs.Severity, obs.Category)
	if obs.Message != "" {
		b.WriteString(obs.Message)
		b.WriteString("\n")
	}
	if obs.Snippet != "" {
		b.WriteString("\n```text\n")
		b.WriteString(strings.TrimRight(obs.Snippet, "\n"))
		b.WriteString("\n```\n")
	}
	if obs.Detail != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(obs.Detail, "\n"))
		b.WriteString("\n")
	}
	if obs.Suggestion != "" {
		fmt.Fprintf(&b, "\n**Suggested action:** %s\n", obs.Suggestion)
	}
	return w.append(b.String())
}

// Trailer writes the session summary block. Call exactly once, after the
// final Record call.
func (w *Writer) Trailer(sum Summary) error {
	var b strings.Builder
	b.WriteString("\n---\n\n## Session Summary\n\n")
	fmt.Fprintf(&b, "- **Stopped:** %s\n", sum.StoppedAt.Format(timeLayout))
	fmt.Fprintf(&b, "- **Reason:** %s\n", sum.Reason)
	fmt.Fprintf(&b, "- **Duration:** %s\n", sum.Duration.Round(time.Second))
	fmt.Fprintf(&b, "- **Observations:** %d\n", sum.Observations)
	fmt.Fprintf(&b, "- **Critical issues:** %d\n", sum.CriticalIssues)
	fmt.Fprintf(&b, "- **Analysis calls:** %d\n", sum.AnalysisCalls)
	fmt.Fprintf(&b, "- **Cache replays:** %d\n", sum.CacheReplays)
	if sum.PendingBatch > 0 {
		fmt.Fprintf(&b, "- **Unflushed batch entries:** %d\n", sum.PendingBatch)
	}
	return w.append(b.String())
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *Writer) append(s string) error {
	if w.file == nil {
		return fmt.Errorf("observation writer is closed")
	}
	if _, err := w.file.WriteString(s); err != nil {
		return fmt.Errorf("append observation: %w", err)
	}
	return nil
}

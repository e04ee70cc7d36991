// Package tail reads newly appended bytes from a growing log file. Position
// is tracked in a sidecar marker file so a restarted sentinel resumes where
// the previous run left off.
package tail

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MarkerSuffix is appended to the log path to form the offset marker path.
const MarkerSuffix = ".sentinel-last-check"

// ErrNotFound is returned by Next when the watched log does not exist yet.
// Callers back off and retry on the next poll.
var ErrNotFound = errors.New("log file not found")

// Tailer reads appended content from a single log file across polls.
// The offset only moves forward, except when the file shrinks (rotation),
// which resets it to zero.
type Tailer struct {
	path       string
	markerPath string
	offset     int64
}

// New returns a Tailer for path, resuming from the persisted marker if one
// exists. A missing or unreadable marker starts from offset zero.
func New(path string) *Tailer {
	t := &Tailer{
		path:       path,
		markerPath: path + MarkerSuffix,
	}
	t.offset = loadMarker(t.markerPath)
	return t
}

// Path returns the watched log path.
func (t *Tailer) Path() string {
	return t.path
}

// MarkerPath returns the sidecar offset marker path.
func (t *Tailer) MarkerPath() string {
	return t.markerPath
}

// Offset returns the current byte offset into the log.
func (t *Tailer) Offset() int64 {
	return t.offset
}

// Next returns the bytes appended since the previous call. It returns
// ErrNotFound while the log is absent, and an empty slice when nothing new
// was written or the file shrank (the offset resets to zero in that case, so
// the following call reads the rotated file from the start). The marker is
// persisted after every offset change.
func (t *Tailer) Next() ([]byte, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat log: %w", err)
	}

	if info.Size() < t.offset {
		// Rotation or truncation. Reset and let the next poll pick up
		// the new file body.
		t.offset = 0
		if err := t.persist(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if info.Size() == t.offset {
		return nil, nil
	}

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log to %d: %w", t.offset, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	t.offset += int64(len(data))
	if err := t.persist(); err != nil {
		return nil, err
	}
	return data, nil
}

func (t *Tailer) persist() error {
	content := strconv.FormatInt(t.offset, 10) + "\n"
	if err := os.WriteFile(t.markerPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("persist offset marker: %w", err)
	}
	return nil
}

// loadMarker reads a persisted offset. Anything unreadable or unparsable is
// treated as a fresh start.
func loadMarker(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

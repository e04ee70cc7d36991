package tail

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open log for append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestNextReadsWholeFileFirst(t *testing.T) {
	log := filepath.Join(t.TempDir(), "install.log")
	writeLog(t, log, "line one\nline two\n")

	tl := New(log)
	data, err := tl.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(data) != "line one\nline two\n" {
		t.Errorf("Next = %q", data)
	}
	if tl.Offset() != int64(len(data)) {
		t.Errorf("Offset = %d, want %d", tl.Offset(), len(data))
	}
	if _, err := os.Stat(tl.MarkerPath()); err != nil {
		t.Errorf("marker not persisted: %v", err)
	}
}

func TestNextReturnsOnlyAppendedBytes(t *testing.T) {
	log := filepath.Join(t.TempDir(), "install.log")
	writeLog(t, log, "first\n")

	tl := New(log)
	if _, err := tl.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	appendLog(t, log, "second\n")
	data, err := tl.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(data) != "second\n" {
		t.Errorf("Next = %q, want appended bytes only", data)
	}

	// Nothing new: empty read, no error.
	data, err = tl.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("idle Next = %q, want empty", data)
	}
}

func TestNextCoversAllAppendsExactlyOnce(t *testing.T) {
	log := filepath.Join(t.TempDir(), "install.log")
	writeLog(t, log, "")

	tl := New(log)
	appends := []string{"a\n", "bb\n", "ccc\nddd\n", "e"}
	var total, seen int

	for _, chunk := range appends {
		appendLog(t, log, chunk)
		total += len(chunk)
		data, err := tl.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		seen += len(data)
	}
	if seen != total {
		t.Errorf("read %d bytes across polls, appended %d", seen, total)
	}
}

func TestNextResetsOnShrink(t *testing.T) {
	log := filepath.Join(t.TempDir(), "install.log")
	writeLog(t, log, "a long first generation of content\n")

	tl := New(log)
	if _, err := tl.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	// Rotate: replace with a shorter file.
	writeLog(t, log, "fresh\n")

	data, err := tl.Next()
	if err != nil {
		t.Fatalf("Next after shrink: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("shrink poll returned %q, want empty", data)
	}
	if tl.Offset() != 0 {
		t.Errorf("Offset after shrink = %d, want 0", tl.Offset())
	}

	data, err = tl.Next()
	if err != nil {
		t.Fatalf("Next after reset: %v", err)
	}
	if string(data) != "fresh\n" {
		t.Errorf("post-rotation Next = %q, want whole new file", data)
	}
}

func TestNextMissingFile(t *testing.T) {
	log := filepath.Join(t.TempDir(), "missing.log")

	tl := New(log)
	if _, err := tl.Next(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Next on missing file: err = %v, want ErrNotFound", err)
	}

	// File appears later: poll recovers.
	writeLog(t, log, "here now\n")
	data, err := tl.Next()
	if err != nil {
		t.Fatalf("Next after creation: %v", err)
	}
	if string(data) != "here now\n" {
		t.Errorf("Next = %q", data)
	}
}

func TestNewResumesFromMarker(t *testing.T) {
	log := filepath.Join(t.TempDir(), "install.log")
	writeLog(t, log, "old content\n")

	first := New(log)
	if _, err := first.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	appendLog(t, log, "new content\n")

	second := New(log)
	data, err := second.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(data) != "new content\n" {
		t.Errorf("resumed Next = %q, want only post-marker bytes", data)
	}
}

func TestNewIgnoresMalformedMarker(t *testing.T) {
	log := filepath.Join(t.TempDir(), "install.log")
	writeLog(t, log, "content\n")
	writeLog(t, log+MarkerSuffix, "not a number\n")

	tl := New(log)
	if tl.Offset() != 0 {
		t.Errorf("Offset with malformed marker = %d, want 0", tl.Offset())
	}
	data, err := tl.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(data) != "content\n" {
		t.Errorf("Next = %q, want full file", data)
	}
}

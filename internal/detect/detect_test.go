package detect

import (
	"fmt"
	"strings"
	"testing"
)

func TestScanBasePatterns(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"error keyword", "Error: unable to open /etc/hosts", true},
		{"failed keyword", "install step failed with code 2", true},
		{"warn keyword", "WARNING: low memory", true},
		{"exception keyword", "unhandled exception in worker", true},
		{"timeout keyword", "request timeout after 30s", true},
		{"connection refused", "dial tcp 127.0.0.1:5432: connection refused", true},
		{"permission denied", "open /root/.ssh/id_rsa: permission denied", true},
		{"not found", "command not found: brew", true},
		{"requires keyword", "package requires macOS 14 or newer", true},
		{"mixed case", "ERRoR during sync", true},
		{"clean line", "fetched 42 packages in 3.1s", false},
		{"progress line", "downloading component 3 of 9", false},
	}

	d := New("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := d.Scan([]byte(tt.line))
			if m.Found() != tt.want {
				t.Errorf("Scan(%q).Found() = %v, want %v", tt.line, m.Found(), tt.want)
			}
		})
	}
}

func TestScanBootstrapExtension(t *testing.T) {
	lines := []string{
		"Password: ",
		"updating keychain entry for github.com",
		"waiting for Touch ID confirmation",
	}

	base := New("routine maintenance")
	boot := New("first bootstrap of a new machine")

	for _, line := range lines {
		if base.Scan([]byte(line)).Found() {
			t.Errorf("base detector matched %q", line)
		}
		if !boot.Scan([]byte(line)).Found() {
			t.Errorf("bootstrap detector missed %q", line)
		}
	}
}

func TestScanSnippetCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "error: attempt %d\n", i)
	}
	b.WriteString("all good here\n")

	m := New("").Scan([]byte(b.String()))
	if m.Lines != 8 {
		t.Errorf("Lines = %d, want 8", m.Lines)
	}
	got := strings.Split(m.Snippet, "\n")
	if len(got) != SnippetLines {
		t.Fatalf("snippet has %d lines, want %d", len(got), SnippetLines)
	}
	if got[0] != "error: attempt 0" || got[4] != "error: attempt 4" {
		t.Errorf("snippet captured wrong lines: %q", m.Snippet)
	}
}

func TestScanSkipsBlankLines(t *testing.T) {
	m := New("").Scan([]byte("\n\n   \n"))
	if m.Found() {
		t.Errorf("blank buffer produced a match: %+v", m)
	}
}

func TestSignature(t *testing.T) {
	a := Signature("error: disk full")
	b := Signature("error: disk full")
	c := Signature("error: disk almost full")

	if a != b {
		t.Errorf("same snippet produced different signatures: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different snippets produced the same signature")
	}
	if len(a) != SignatureLength {
		t.Errorf("signature length = %d, want %d", len(a), SignatureLength)
	}
	for _, r := range a {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("signature %q contains non-hex rune %q", a, r)
		}
	}
}

package ux

import (
	"bytes"
	"strings"
	"testing"

	"sentinel/internal/observe"
)

func TestConsoleAlert(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{out: &buf}

	c.Alert(observe.SeverityCritical, "disk almost full")

	got := buf.String()
	if !strings.Contains(got, "[CRITICAL]") {
		t.Errorf("missing severity tag: %q", got)
	}
	if !strings.Contains(got, "disk almost full") {
		t.Errorf("missing message: %q", got)
	}
}

func TestConsoleQuietSuppressesOutput(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{out: &buf, quiet: true}

	c.Banner("/var/log/install.log", "alert", "cloud (gpt-4o)")
	c.Alert(observe.SeverityError, "something broke")
	c.Note("pausing")

	if buf.Len() != 0 {
		t.Errorf("quiet console wrote %q", buf.String())
	}
}

func TestStyleForCoversAllSeverities(t *testing.T) {
	for _, sev := range []observe.Severity{
		observe.SeverityInfo,
		observe.SeverityWarn,
		observe.SeverityError,
		observe.SeverityCritical,
	} {
		// Render must not panic and must preserve the text.
		out := styleFor(sev).Render(string(sev))
		if !strings.Contains(out, string(sev)) {
			t.Errorf("styled output for %s lost its text: %q", sev, out)
		}
	}
}

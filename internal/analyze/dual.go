package analyze

import (
	"context"
	"fmt"
	"strings"
)

// Dual runs a cloud and a local backend over the same snippet and combines
// their outputs. One backend failing degrades to the other's result with a
// note; both failing fails the call.
type Dual struct {
	cloud Backend
	local Backend
}

// NewDual creates a dual backend over the given pair.
func NewDual(cloud, local Backend) *Dual {
	return &Dual{cloud: cloud, local: local}
}

// Name identifies both member backends.
func (d *Dual) Name() string {
	return fmt.Sprintf("both: %s + %s", d.cloud.Name(), d.local.Name())
}

// Analyze invokes the cloud backend, then the local one. Both calls run
// sequentially: the sentinel loop is single-threaded and analysis latency
// is an accepted cost.
func (d *Dual) Analyze(ctx context.Context, snippet string) (string, error) {
	cloudText, cloudErr := d.cloud.Analyze(ctx, snippet)
	localText, localErr := d.local.Analyze(ctx, snippet)

	switch {
	case cloudErr != nil && localErr != nil:
		return "", fmt.Errorf("both backends failed: cloud: %v; local: %w", cloudErr, localErr)
	case cloudErr != nil:
		return fmt.Sprintf("Note: %s failed (%v); local analysis only.\n\n%s",
			d.cloud.Name(), cloudErr, localText), nil
	case localErr != nil:
		return fmt.Sprintf("Note: %s failed (%v); cloud analysis only.\n\n%s",
			d.local.Name(), localErr, cloudText), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n%s\n\n---\n\n## %s\n\n%s\n\n---\n\n%s\n",
		d.cloud.Name(), cloudText, d.local.Name(), localText,
		agreementNote(ParseReport(cloudText), ParseReport(localText)))
	return b.String(), nil
}

// agreementNote compares the structured fields of two reports. A
// deterministic field comparison replaces the original idea of asking a
// third model to judge agreement.
func agreementNote(cloud, local Report) string {
	if cloud.Severity == "" || local.Severity == "" {
		return "Backend agreement not evaluated: at least one response is unlabeled."
	}
	sevMatch := cloud.Severity == local.Severity
	catMatch := strings.EqualFold(cloud.Category, local.Category)
	if sevMatch && catMatch {
		return fmt.Sprintf("Backends agree: severity %s, category %s.", cloud.Severity, cloud.Category)
	}
	return fmt.Sprintf("Backends disagree: cloud reports %s/%s, local reports %s/%s.",
		cloud.Severity, orDash(cloud.Category), local.Severity, orDash(local.Category))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

//go:build darwin || linux

package disk

import "testing"

func TestStatfsQuerier(t *testing.T) {
	free, err := StatfsQuerier{}.FreeGB(t.TempDir())
	if err != nil {
		t.Fatalf("FreeGB: %v", err)
	}
	if free < 0 {
		t.Errorf("FreeGB = %v, want non-negative", free)
	}
}

func TestStatfsQuerierMissingPath(t *testing.T) {
	if _, err := (StatfsQuerier{}).FreeGB("/no/such/path/anywhere"); err == nil {
		t.Error("FreeGB on missing path should fail")
	}
}

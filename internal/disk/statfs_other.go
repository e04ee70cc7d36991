//go:build !darwin && !linux

package disk

import "errors"

// StatfsQuerier has no statfs(2) to call here. Every query fails, so the
// watch loop logs and skips disk classification rather than guessing.
type StatfsQuerier struct{}

func (StatfsQuerier) FreeGB(path string) (float64, error) {
	return 0, errors.New("disk space query not supported on this platform")
}

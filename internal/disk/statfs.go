//go:build darwin || linux

package disk

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// StatfsQuerier reports free space via statfs(2).
type StatfsQuerier struct{}

// FreeGB returns the space available to unprivileged users on the
// filesystem containing path, in gigabytes.
func (StatfsQuerier) FreeGB(path string) (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	free := uint64(st.Bavail) * uint64(st.Bsize)
	return float64(free) / (1 << 30), nil
}

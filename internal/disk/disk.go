// Package disk reports free space on a filesystem and classifies it against
// fixed thresholds.
package disk

// Thresholds in gigabytes. Deliberately simple: two cutoffs, no hysteresis.
// The monitor re-fires every interval while a condition persists, unlike log
// errors which are debounced.
const (
	WarnBelowGB     = 10.0
	CriticalBelowGB = 5.0
)

// Level classifies available space.
type Level int

const (
	LevelOK Level = iota
	LevelWarn
	LevelCritical
)

// String returns the level name as used in observations.
func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "OK"
	}
}

// Querier reports free space in gigabytes for the filesystem containing
// path. Implementations must not cache between calls.
type Querier interface {
	FreeGB(path string) (float64, error)
}

// Classify maps free gigabytes to a Level.
func Classify(freeGB float64) Level {
	switch {
	case freeGB < CriticalBelowGB:
		return LevelCritical
	case freeGB < WarnBelowGB:
		return LevelWarn
	default:
		return LevelOK
	}
}

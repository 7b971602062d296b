package cache

import (
	"fmt"
	"strconv"
	"time"
)

// TTL defaults and bounds.
const (
	// DefaultTTL is the lifetime of configuration and factor lookups.
	DefaultTTL = 5 * time.Minute

	// MinTTL is the smallest accepted TTL.
	MinTTL = time.Second

	// MaxTTL is the largest accepted TTL (7 days).
	MaxTTL = 7 * 24 * time.Hour

	// DefaultCleanupThreshold is the size above which a store sweeps expired entries.
	DefaultCleanupThreshold = 1000

	minutesPerHour = 60
	hoursPerDay    = 24
)

// ErrInvalidTTL is returned for TTLs outside [MinTTL, MaxTTL].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", MinTTL, MaxTTL) //nolint:gochecknoglobals // sentinel error

// ParseTTL parses a TTL string in either format:
// - Integer seconds: "300".
// - Duration string: "5m", "1h30m".
func ParseTTL(s string) (time.Duration, error) {
	var d time.Duration
	if seconds, err := strconv.Atoi(s); err == nil {
		d = time.Duration(seconds) * time.Second
	} else {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", perr)
		}
		d = parsed
	}

	if d < MinTTL || d > MaxTTL {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return d, nil
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "1h", "5m", "45s", "2d3h".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

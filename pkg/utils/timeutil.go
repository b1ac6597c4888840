package utils

import (
	"fmt"
	"math"
	"time"
)

// AgeDays returns the age of deployed relative to now in whole days,
// floor((now − deployed) / 24h).
func AgeDays(now, deployed time.Time) int {
	return int(math.Floor(now.Sub(deployed).Hours() / 24))
}

// FormatAge renders an age in days with the day unit marker, e.g., "127d".
func FormatAge(days int) string {
	return fmt.Sprintf("%dd", days)
}

// Package format renders counts, byte sizes, and times for progress reports.
package format

import (
	"fmt"
	"strconv"
	"time"
)

// Elapsed renders d as zero-padded HH:MM:SS. Hours are a raw count, not
// wrapped to a calendar day, so long runs render as "26:03:09".
// Negative durations render as 00:00:00.
func Elapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// Clock renders t's wall-clock time of day as HH:MM:SS.
func Clock(t time.Time) string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Digits returns the number of decimal digits in n. Counts are padded to
// the width of their expected total so consecutive reports line up.
func Digits(n uint64) int {
	c := 1
	for n >= 10 {
		c++
		n /= 10
	}
	return c
}

// HumanizeBytes converts a byte count into a human-readable string (e.g., "1.5 MB").
func HumanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	// Use a fixed buffer to avoid allocation
	var buf [20]byte
	frac := float64(b) / float64(div)
	s := strconv.AppendFloat(buf[:0], frac, 'f', 1, 64)
	suffix := []string{"KB", "MB", "GB", "TB"}[exp]
	return string(s) + " " + suffix
}

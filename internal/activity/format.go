package activity

import (
	"strconv"
	"strings"
	"time"
)

// FormatDuration renders milliseconds as "1h 2m 3s", omitting zero units.
// Negative inputs render as "0s".
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := (ms / 1000) % 60
	minutes := (ms / (1000 * 60)) % 60
	hours := (ms / (1000 * 60 * 60)) % 24

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(seconds, 10)+"s")
	}
	return strings.Join(parts, " ")
}

// formatClock renders a session boundary for display ("9:05:00 AM").
func formatClock(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("3:04:05 PM")
}

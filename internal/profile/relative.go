package profile

import (
	"fmt"
	"time"
)

// FormatRelative renders t relative to now, e.g. "just now" or "3 minutes ago".
// Months are 30 days and years 12 months. Times in the future render as "just now".
func FormatRelative(now, t time.Time) string {
	seconds := int(now.Sub(t) / time.Second)
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return plural(minutes, "minute")
	}
	hours := minutes / 60
	if hours < 24 {
		return plural(hours, "hour")
	}
	days := hours / 24
	if days < 30 {
		return plural(days, "day")
	}
	months := days / 30
	if months < 12 {
		return plural(months, "month")
	}
	return plural(months/12, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

package cli

import (
	"fmt"
	"time"
)

// FormatSeconds formats a duration in seconds to a human readable string
func FormatSeconds(secs float64) string {
	if secs < 1 {
		return fmt.Sprintf("%dms", int(secs*1000+0.5))
	}
	if secs < 60 {
		return fmt.Sprintf("%.2fs", secs)
	}
	mins := int(secs / 60)
	secs -= float64(mins * 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatUnix formats seconds since epoch as UTC RFC 3339.
func FormatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// Optional returns *s, or "-" when s is nil.
func Optional[T any](s *T) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprint(*s)
}

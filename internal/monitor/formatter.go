package monitor

import "fmt"

// FormatLatency formats a latency in milliseconds as "X.XXms" or "X.XXs".
func FormatLatency(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2fms", ms)
	}
	return fmt.Sprintf("%.2fs", ms/1000)
}

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatThroughput formats characters per second.
func FormatThroughput(perSecond float64) string {
	return FormatChars(int64(perSecond)) + "/s"
}

// FormatChars formats a character count as "X", "X.XK" or "X.XM".
func FormatChars(n int64) string {
	const (
		K = 1000
		M = 1000 * K
	)

	switch {
	case n >= M:
		return fmt.Sprintf("%.1fM", float64(n)/float64(M))
	case n >= K:
		return fmt.Sprintf("%.1fK", float64(n)/float64(K))
	default:
		return fmt.Sprintf("%d", n)
	}
}

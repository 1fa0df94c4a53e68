package tui

import (
	"fmt"
	"strings"
	"time"
)

// truncateEnd shortens s to at most limit runes, ending in an ellipsis when
// anything was cut.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which is what matters in a URL.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left == 0 {
		return "…" + string(r[n-right:])
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}

// singleLine collapses runs of whitespace, newlines included.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// relativeDate renders t the way the feed cards do: whole hours below a
// day, "Yesterday" below two, days below a week, then the calendar date.
func relativeDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	hours := int(now.Sub(t).Hours())
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case hours < 48:
		return "Yesterday"
	case hours < 168:
		return fmt.Sprintf("%dd ago", hours/24)
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}

package viewer

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pders01/techfirst/internal/config"
)

// Thresholds tune when extracted content is good enough to show inline.
// They are rough heuristics against garbage extraction.
type Thresholds struct {
	MinHTMLLength   int
	MaxControlRatio float64
	MinReaderLength int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinHTMLLength:   100,
		MaxControlRatio: 0.05,
		MinReaderLength: 100,
	}
}

// ThresholdsFromConfig falls back to the defaults for unset values.
func ThresholdsFromConfig(cfg config.ViewerConfig) Thresholds {
	th := DefaultThresholds()
	if cfg.MinHTMLLength > 0 {
		th.MinHTMLLength = cfg.MinHTMLLength
	}
	if cfg.MaxControlRatio > 0 {
		th.MaxControlRatio = cfg.MaxControlRatio
	}
	if cfg.MinReaderLength > 0 {
		th.MinReaderLength = cfg.MinReaderLength
	}
	return th
}

// isGarbage reports runes that suggest a binary or mis-decoded body.
func isGarbage(r rune) bool {
	if r == utf8.RuneError {
		return true
	}
	return !unicode.IsPrint(r) && !unicode.IsSpace(r)
}

func countGarbage(s string) (bad, total int) {
	for _, r := range s {
		total++
		if isGarbage(r) {
			bad++
		}
	}
	return bad, total
}

// ControlRatio is the share of garbage runes in s.
func ControlRatio(s string) float64 {
	bad, total := countGarbage(s)
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

// UsableHTML reports whether body is long enough and clean enough to render.
func (t Thresholds) UsableHTML(body string) bool {
	if body == "" {
		return false
	}
	bad, n := countGarbage(body)
	if n < t.MinHTMLLength {
		return false
	}
	// the boundary itself is usable: 100 bad runes in 2000 pass at 5%
	return float64(bad) <= t.MaxControlRatio*float64(n)+1e-9
}

// UsableReader reports whether reader-mode text has more than the minimum.
func (t Thresholds) UsableReader(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > t.MinReaderLength
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// ReconstructHTML turns plain reader text into escaped <p> paragraphs.
func ReconstructHTML(text string) string {
	var b strings.Builder
	for _, para := range blankLine.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>")
	}
	return b.String()
}

package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/techfirst/internal/api"
)

// contentItem is one card in the feed or result list.
type contentItem struct {
	summary api.ContentSummary
	read    bool
	now     time.Time
}

func (i contentItem) Title() string {
	title := singleLine(i.summary.Title)
	if i.read {
		return renderBadge(i.summary.ContentType) + " " + ReadItemStyle.Render(title)
	}
	return renderBadge(i.summary.ContentType) + " " +
		lipgloss.NewStyle().Foreground(UnreadColor).Render("●") + " " +
		UnreadItemStyle.Render(title)
}

// Description is two lines: source, date and author, then the TL;DR when
// the backend has one.
func (i contentItem) Description() string {
	var meta []string
	if i.summary.SourceName != "" {
		meta = append(meta, i.summary.SourceName)
	}
	if d := relativeDate(i.summary.PublishedDate.Time, i.now); d != "" {
		meta = append(meta, d)
	}
	if i.summary.Author != "" {
		meta = append(meta, "by "+i.summary.Author)
	}
	desc := TimeStyle.Render(strings.Join(meta, " • "))

	if s := singleLine(i.summary.AISummary); s != "" {
		desc += "\n" + SummaryLabelStyle.Render("TL;DR") + " " + renderMuted(s)
	}
	return desc
}

func (i contentItem) FilterValue() string {
	return i.summary.Title + " " + i.summary.SourceName
}

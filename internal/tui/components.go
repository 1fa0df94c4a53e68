package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns the view title with an optional muted subtitle on the
// same line.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	if subtitle == "" {
		return HeaderStyle.Render(title)
	}
	room := width - 2 - len([]rune(title)) - 3
	return HeaderStyle.Render(title) + renderMuted(" • "+truncateEnd(subtitle, room))
}

// renderInputFrame draws a rounded border around an already rendered input.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderEmptyState stacks a headline over a hint, both centred.
func renderEmptyState(width, height int, headline, hint string, headlineStyle lipgloss.Style) string {
	rows := []string{headlineStyle.Render(headline)}
	if hint != "" {
		rows = append(rows, "", renderHelp(hint))
	}
	return renderCentered(width, height, lipgloss.JoinVertical(lipgloss.Center, rows...))
}

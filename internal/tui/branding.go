package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/config"
)

const AppName = "techfirst"

const CompactLogo = "techfirst ›"

// LogoLines is the wordmark shown on the version banner.
var LogoLines = []string{
	"▀█▀ █▀▀ █▀▀ █ █ █▀▀ █ █▀█ █▀ ▀█▀",
	" █  █▀▀ █   █▀█ █▀  █ █▀▄ ▀█  █ ",
	" ▀  ▀▀▀ ▀▀▀ ▀ ▀ ▀   ▀ ▀ ▀ ▀▀  ▀ ",
}

var (
	PrimaryColor   = lipgloss.Color("#60A5FA")
	SecondaryColor = lipgloss.Color("#A78BFA")
	AccentColor    = lipgloss.Color("#34D399")
	TextColor      = lipgloss.Color("#E5E5E5")
	MutedColor     = lipgloss.Color("#737373")
	ErrorColor     = lipgloss.Color("#F87171")
	SuccessColor   = lipgloss.Color("#34D399")

	BadgeTextColor = lipgloss.Color("#000000")
	UnreadColor    = lipgloss.Color("#FBBF24")
	ReadColor      = lipgloss.Color("#525252")
)

// typeColors follows the card palette of the web client.
var typeColors = map[api.ContentType]lipgloss.Color{
	api.TypePaper:    lipgloss.Color("#60A5FA"),
	api.TypeResearch: lipgloss.Color("#A78BFA"),
	api.TypeNews:     lipgloss.Color("#F87171"),
	api.TypeTutorial: lipgloss.Color("#34D399"),
	api.TypeEssay:    lipgloss.Color("#FBBF24"),
	api.TypeArticle:  lipgloss.Color("#818CF8"),
	api.TypePost:     lipgloss.Color("#F472B6"),
}

var (
	LogoStyle          lipgloss.Style
	HeaderStyle        lipgloss.Style
	UnreadItemStyle    lipgloss.Style
	ReadItemStyle      lipgloss.Style
	HelpStyle          lipgloss.Style
	TimeStyle          lipgloss.Style
	SummaryLabelStyle  lipgloss.Style
	ErrorMessageStyle  lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

func init() {
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	HeaderStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	UnreadItemStyle = lipgloss.NewStyle().Foreground(TextColor).Bold(true)
	ReadItemStyle = lipgloss.NewStyle().Foreground(ReadColor)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	TimeStyle = lipgloss.NewStyle().Foreground(MutedColor).Faint(true)
	SummaryLabelStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)

	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(UnreadColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

// ApplyColors replaces the palette with the configured colours. Empty
// entries keep their defaults.
func ApplyColors(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

// TypeColor returns the badge colour for a content type.
func TypeColor(ct api.ContentType) lipgloss.Color {
	if c, ok := typeColors[ct]; ok {
		return c
	}
	return MutedColor
}

func renderBadge(ct api.ContentType) string {
	return lipgloss.NewStyle().
		Foreground(BadgeTextColor).
		Background(TypeColor(ct)).
		Bold(true).
		Padding(0, 1).
		Render(strings.ToUpper(string(ct)))
}

// Banner renders the wordmark with a tagline. The version is prefixed with
// "v" unless it is empty or "dev".
func Banner(version string) string {
	lines := make([]string, 0, len(LogoLines)+2)
	for i, line := range LogoLines {
		colour := typeColors[bannerOrder[i%len(bannerOrder)]]
		lines = append(lines, lipgloss.NewStyle().Foreground(colour).Bold(true).Render(line))
	}

	tagline := "Tech news, papers and essays in your terminal"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline = fmt.Sprintf("%s %s", tagline, version)
	}
	lines = append(lines, "", HelpStyle.Render(tagline))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

var bannerOrder = []api.ContentType{api.TypePaper, api.TypeResearch, api.TypePost}

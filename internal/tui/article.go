package tui

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/viewer"
)

// articleState is the article currently on screen. seq ties asynchronous
// results to the open that requested them.
type articleState struct {
	seq          int
	ref          viewer.Ref
	title        string
	url          string
	loading      bool
	decision     viewer.Decision
	presentation *viewer.Presentation
	markdown     string
}

func htmlMarkdown(title, url string, detail *api.ContentDetail, html string) (string, error) {
	body, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting article: %w", err)
	}
	return articleHeader(title, url, detail) + body, nil
}

func articleHeader(title, url string, detail *api.ContentDetail) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", singleLine(title))
	}

	if detail != nil {
		var meta []string
		if detail.SourceName != "" {
			meta = append(meta, detail.SourceName)
		}
		if !detail.PublishedDate.IsZero() {
			meta = append(meta, detail.PublishedDate.Local().Format("Jan 2, 2006"))
		}
		if detail.Author != "" {
			meta = append(meta, "by "+detail.Author)
		}
		if len(meta) > 0 {
			fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " • "))
		}
		if s := singleLine(detail.AISummary); s != "" {
			fmt.Fprintf(&b, "> **TL;DR** %s\n\n", s)
		}
		if len(detail.AIKeyPoints) > 0 {
			b.WriteString("**Key points**\n\n")
			for _, p := range detail.AIKeyPoints {
				fmt.Fprintf(&b, "- %s\n", singleLine(p))
			}
			b.WriteString("\n")
		}
	}

	if url != "" {
		fmt.Fprintf(&b, "[Read Online](%s)\n\n", url)
	}
	b.WriteString("---\n\n")
	return b.String()
}

func linkOnlyMarkdown(url, reason, openKey string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", MsgContentUnavailable)
	if reason != "" {
		fmt.Fprintf(&b, "*%s*\n\n", reason)
	}
	fmt.Fprintf(&b, "%s\n\n", url)
	fmt.Fprintf(&b, "**%s**\n", MsgOpenOriginal(openKey))
	return b.String()
}

func launchedMarkdown(title, url string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", singleLine(title))
	}
	fmt.Fprintf(&b, "%s:\n\n%s\n", MsgOpenedInBrowser, url)
	return b.String()
}

func notFoundMarkdown(reason string) string {
	md := "# " + MsgArticleNotFound + "\n\n"
	if reason != "" {
		md += "*" + reason + "*\n"
	}
	return md
}

package tui

import "fmt"

// Canonical short status messages used across the app.
const (
	MsgLoading            = "Loading content..."
	MsgLoadingArticle     = "Loading article…"
	MsgRefreshing         = "Refreshing…"
	MsgSearching          = "Searching…"
	MsgNoContent          = "No content found"
	MsgTryDifferent       = "Try a different search"
	MsgContentUnavailable = "Content Not Available"
	MsgArticleNotFound    = "Article not found"
	MsgOpenedInBrowser    = "Opened in browser"
)

func MsgRefreshHint(key string) string {
	return fmt.Sprintf("Press %s to refresh", key)
}

func MsgOpenOriginal(key string) string {
	return fmt.Sprintf("%s: open original", key)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgFeedCount describes how much of the feed is loaded.
func MsgFeedCount(loaded, total int) string {
	if total <= 0 || total < loaded {
		return fmt.Sprintf("%d items", loaded)
	}
	return fmt.Sprintf("%d of %d", loaded, total)
}

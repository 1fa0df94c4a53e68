package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/debuglog"
	"github.com/pders01/techfirst/internal/viewer"
)

const suggestionLimit = 10

type stateChangedMsg struct{}

type readSetMsg struct {
	read map[int64]bool
}

type suggestionsMsg struct {
	queries []string
}

type searchFireMsg struct {
	query string
}

type articleLoadedMsg struct {
	seq          int
	decision     viewer.Decision
	presentation *viewer.Presentation
	markdown     string
}

type openedMsg struct {
	url string
	err error
}

type errorMsg struct {
	err error
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// listen waits for the next controller change. It is re-armed after every
// stateChangedMsg, so exactly one listener is pending at a time.
func (a *App) listen() tea.Cmd {
	ch, ctx := a.updates, a.ctx
	return func() tea.Msg {
		select {
		case <-ch:
			return stateChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// The controller commands return nothing; their effect arrives through
// listen.

func (a *App) loadFeed() tea.Cmd {
	c, ctx := a.controller, a.ctx
	return func() tea.Msg {
		c.LoadFeed(ctx)
		return nil
	}
}

func (a *App) loadMore() tea.Cmd {
	c, ctx := a.controller, a.ctx
	return func() tea.Msg {
		c.LoadMore(ctx)
		return nil
	}
}

func (a *App) runSearch(query string) tea.Cmd {
	c, ctx := a.controller, a.ctx
	return func() tea.Msg {
		c.Search(ctx, query)
		return nil
	}
}

func (a *App) refresh() tea.Cmd {
	c, ctx := a.controller, a.ctx
	return func() tea.Msg {
		c.Refresh(ctx)
		return nil
	}
}

// scheduleSearch arms the debouncer. The returned command yields nothing
// when a later keystroke or teardown cancels the task.
func (a *App) scheduleSearch(query string) tea.Cmd {
	task := a.debouncer.Schedule()
	return func() tea.Msg {
		if !task.Wait() {
			return nil
		}
		return searchFireMsg{query: query}
	}
}

func (a *App) loadReadSet() tea.Cmd {
	h := a.history
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		read, err := h.ReadSet()
		if err != nil {
			debuglog.Warnf("loading read marks: %v", err)
			return nil
		}
		return readSetMsg{read: read}
	}
}

func (a *App) loadSuggestions() tea.Cmd {
	h := a.history
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		return suggestions(h)
	}
}

func (a *App) recordSearch(query string) tea.Cmd {
	h := a.history
	if h == nil || query == "" {
		return nil
	}
	return func() tea.Msg {
		if err := h.RecordSearch(query); err != nil {
			return errorMsg{err: wrapErr("saving search", err)}
		}
		return suggestions(h)
	}
}

func suggestions(h History) tea.Msg {
	recent, err := h.RecentSearches(suggestionLimit)
	if err != nil {
		debuglog.Warnf("loading recent searches: %v", err)
		return nil
	}
	queries := make([]string, len(recent))
	for i, r := range recent {
		queries[i] = r.Query
	}
	return suggestionsMsg{queries: queries}
}

func (a *App) markRead(s api.ContentSummary) tea.Cmd {
	h := a.history
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		if err := h.MarkRead(s.ID, s.Title, s.URL); err != nil {
			return errorMsg{err: wrapErr("marking read", err)}
		}
		return nil
	}
}

// selectArticle runs the selector and, for external decisions, the
// configured presenter. Markdown is produced here; glamour rendering happens
// on the update loop because the renderer is cached on the App.
func (a *App) selectArticle(seq int, ref viewer.Ref) tea.Cmd {
	sel, pres, ctx := a.selector, a.presenter, a.ctx
	openKey := a.keyHandler.keys.openOriginal
	return func() tea.Msg {
		d := sel.Select(ctx, ref)
		msg := articleLoadedMsg{seq: seq, decision: d}

		switch d.Kind {
		case viewer.KindFullHTML, viewer.KindReaderHTML:
			md, err := htmlMarkdown(d.Title, d.URL, d.Detail, d.HTML)
			if err != nil {
				debuglog.WithFields(map[string]any{"article": ref.ID}).Warnf("%v", err)
				md = linkOnlyMarkdown(d.URL, err.Error(), openKey)
			}
			msg.markdown = md

		case viewer.KindExternal:
			p := pres.Present(ctx, d.URL)
			msg.presentation = &p
			msg.markdown = presentationMarkdown(d, p, openKey)

		default:
			msg.markdown = notFoundMarkdown(d.Reason)
		}
		return msg
	}
}

func presentationMarkdown(d viewer.Decision, p viewer.Presentation, openKey string) string {
	title := p.Title
	if title == "" {
		title = d.Title
	}
	switch p.Mode {
	case viewer.ModeEmbedded:
		md, err := htmlMarkdown(title, p.URL, d.Detail, p.HTML)
		if err == nil {
			return md
		}
		return linkOnlyMarkdown(p.URL, err.Error(), openKey)
	case viewer.ModeLaunched:
		return launchedMarkdown(title, p.URL)
	default:
		return linkOnlyMarkdown(p.URL, p.Reason, openKey)
	}
}

func (a *App) openURL(url string) tea.Cmd {
	o := a.opener
	return func() tea.Msg {
		if o == nil {
			return openedMsg{url: url, err: fmt.Errorf("no browser configured")}
		}
		return openedMsg{url: url, err: wrapErr("open original", o.Open(url))}
	}
}

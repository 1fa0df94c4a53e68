package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/techfirst/internal/config"
)

const maxQueryLength = 256

// keyMap holds the resolved key strings, e.g. "ctrl+r".
type keyMap struct {
	quit         string
	back         string
	search       string
	refresh      string
	openOriginal string
	privacy      string
}

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
	keys        keyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	b := cfg.Keys.Bindings
	modified := func(k string) string {
		if k == "" {
			return ""
		}
		return modifierKey + k
	}
	return &KeyHandler{
		app:         app,
		config:      cfg,
		modifierKey: modifierKey,
		keys: keyMap{
			quit:         b.Quit,
			back:         b.Back,
			search:       modified(b.Search),
			refresh:      modified(b.Refresh),
			openOriginal: modified(b.OpenOriginal),
			privacy:      modified(b.Privacy),
		},
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewSearch && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return kh.quit()
	case kh.keys.back:
		return kh.navigateBack()
	case "enter":
		return kh.submitSearch()
	case "down":
		if len(kh.app.list.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.list.Select(0)
		}
		return kh.app, nil
	}

	// Modifier chords still reach the app while typing.
	if strings.HasPrefix(key, kh.modifierKey) {
		if model, cmd, handled := kh.handleCustomKeys(key); handled {
			return model, cmd
		}
	}
	return kh.delegateToTextInput(msg)
}

// delegateToTextInput feeds the key to the search box and schedules a
// debounced search when the query changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := sanitizeSearchInput(kh.app.searchInput.Value())
	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

	query := sanitizeSearchInput(kh.app.searchInput.Value())
	if query != prev {
		return kh.app, tea.Batch(cmd, kh.app.scheduleSearch(query))
	}
	return kh.app, cmd
}

// submitSearch runs the query now instead of waiting for the debounce.
func (kh *KeyHandler) submitSearch() (tea.Model, tea.Cmd) {
	a := kh.app
	a.debouncer.Cancel()
	query := sanitizeSearchInput(a.searchInput.Value())
	if len(a.list.Items()) > 0 || query != "" {
		a.searchInput.Blur()
	}
	a.setStatus(MsgSearching, StatusInfo)
	return a, tea.Batch(a.runSearch(query), a.recordSearch(query), a.startSpinner())
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", kh.keys.quit:
		model, cmd := kh.quit()
		return model, cmd, true
	case kh.keys.back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.keys.search, "/":
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case kh.keys.refresh:
		model, cmd := kh.refresh()
		return model, cmd, true
	case kh.keys.privacy:
		kh.app.showPrivacy()
		return kh.app, nil, true
	case kh.keys.openOriginal:
		model, cmd := kh.openOriginal()
		return model, cmd, true
	}
	return kh.app, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewFeed, ViewSearch:
		if a.view == ViewSearch {
			switch msg.String() {
			case "tab", "shift+tab":
				return a, a.searchInput.Focus()
			case "up":
				if a.list.Index() == 0 {
					return a, a.searchInput.Focus()
				}
			}
		}

		a.list, cmd = a.list.Update(msg)
		if msg.String() == "enter" {
			return a, tea.Batch(cmd, a.openSelected())
		}
		return a, tea.Batch(cmd, a.maybeLoadMore())

	case ViewArticle, ViewPrivacy:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	default:
		return a, nil
	}
}

func (kh *KeyHandler) refresh() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewArticle:
		if a.article != nil {
			return a, a.openArticle(a.article.ref, a.article.title)
		}
		return a, nil
	case ViewPrivacy:
		return a, nil
	default:
		a.debouncer.Cancel()
		a.snapshot.Loading = true
		a.setStatus(MsgRefreshing, StatusInfo)
		return a, tea.Batch(a.refresh(), a.loadReadSet(), a.startSpinner())
	}
}

func (kh *KeyHandler) openOriginal() (tea.Model, tea.Cmd) {
	a := kh.app
	var url string
	switch a.view {
	case ViewArticle:
		if a.article != nil {
			url = a.article.url
		}
	case ViewFeed, ViewSearch:
		if s, ok := a.selectedSummary(); ok {
			url = s.URL
		}
	}
	if url == "" {
		a.setStatus("No link to open", StatusWarn)
		return a, nil
	}
	return a, a.openURL(url)
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		return a, a.leaveSearch()
	case ViewArticle:
		a.closeArticle()
		a.view = a.previousView
		if a.view == ViewSearch {
			// back to the results, not the input
			a.searchInput.Blur()
		}
		a.layout()
		return a, nil
	case ViewPrivacy:
		a.view = a.privacyReturn
		if a.view == ViewArticle && a.article == nil {
			a.view = ViewFeed
		}
		a.layout()
		a.rerender()
		return a, nil
	default:
		return a, nil
	}
}

// enterSearchMode opens the search box, or refocuses it when already there.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.view == ViewSearch {
		return a, a.searchInput.Focus()
	}
	if a.view == ViewArticle {
		a.closeArticle()
	}
	a.view = ViewSearch
	a.searchInput.Reset()
	a.searchInput.SetValue(a.snapshot.Query)
	a.layout()
	return a, tea.Batch(a.searchInput.Focus(), textinput.Blink, a.loadSuggestions())
}

func (kh *KeyHandler) quit() (tea.Model, tea.Cmd) {
	kh.app.Shutdown()
	return kh.app, tea.Quit
}

// GetHelpForCurrentView lists the commands shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	k := kh.keys
	switch kh.app.view {
	case ViewFeed:
		return []string{
			"enter: open",
			"/: search",
			k.refresh + ": refresh",
			k.openOriginal + ": open original",
			k.privacy + ": privacy",
			k.quit + ": quit",
		}
	case ViewSearch:
		if kh.app.searchInput.Focused() {
			return []string{"type to search", "enter: search now", "↓: results", k.back + ": back"}
		}
		return []string{"enter: open", "tab: search box", k.openOriginal + ": open original", k.back + ": back"}
	case ViewArticle:
		return []string{"↑↓: scroll", k.openOriginal + ": open original", k.refresh + ": reload", k.back + ": back"}
	case ViewPrivacy:
		return []string{"↑↓: scroll", k.back + ": back"}
	default:
		return nil
	}
}

// sanitizeSearchInput trims, caps and collapses whitespace in a query.
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > maxQueryLength {
		input = strings.TrimSpace(string(r[:maxQueryLength]))
	}
	return input
}

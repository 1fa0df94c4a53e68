package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/browser"
	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/debounce"
	"github.com/pders01/techfirst/internal/feedstate"
	"github.com/pders01/techfirst/internal/route"
	"github.com/pders01/techfirst/internal/storage"
	"github.com/pders01/techfirst/internal/viewer"
)

// loadMoreThreshold is how close to the end of the feed the cursor has to be
// before the next page is requested.
const loadMoreThreshold = 5

// History is the local state the UI reads and writes. *storage.Store
// satisfies it.
type History interface {
	ReadSet() (map[int64]bool, error)
	MarkRead(id int64, title, url string) error
	RecordSearch(query string) error
	RecentSearches(limit int) ([]storage.RecentSearch, error)
}

// ArticleSelector is satisfied by *viewer.Selector.
type ArticleSelector interface {
	Select(ctx context.Context, ref viewer.Ref) viewer.Decision
}

// Deps are the collaborators the App drives. History and Opener may be nil.
type Deps struct {
	Controller *feedstate.Controller
	Selector   ArticleSelector
	Presenter  viewer.ExternalPresenter
	Opener     browser.Opener
	History    History
}

type App struct {
	config     *config.Config
	ctx        context.Context
	cancel     context.CancelFunc
	controller *feedstate.Controller
	selector   ArticleSelector
	presenter  viewer.ExternalPresenter
	opener     browser.Opener
	history    History
	debouncer  *debounce.Debouncer
	updates    <-chan struct{}
	keyHandler *KeyHandler

	list        list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	spinning    bool

	view          View
	previousView  View
	privacyReturn View
	start         route.Route
	snapshot      feedstate.Snapshot
	readSet       map[int64]bool
	article       *articleState
	articleSeq    int
	status        statusLine
	width         int
	height        int
	err           error
	now           func() time.Time

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(3)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search by title..."
	si.CharLimit = maxQueryLength
	si.ShowSuggestions = true

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	presenter := deps.Presenter
	if presenter == nil {
		presenter = viewer.LinkOnly{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
		controller:  deps.Controller,
		selector:    deps.Selector,
		presenter:   presenter,
		opener:      deps.Opener,
		history:     deps.History,
		debouncer:   debounce.New(cfg.Feed.SearchDebounce),
		updates:     deps.Controller.Subscribe(),
		list:        l,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		view:        ViewFeed,
		readSet:     map[int64]bool{},
		now:         time.Now,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	app.snapshot = deps.Controller.Snapshot()
	return app
}

// StartAt makes the app open at a deep link instead of the bare feed.
func (a *App) StartAt(r route.Route) {
	a.start = r
}

// Shutdown cancels the pending debounce task and every in-flight request.
func (a *App) Shutdown() {
	a.debouncer.Cancel()
	a.cancel()
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// renderMarkdown falls back to the raw markdown if glamour fails.
func (a *App) renderMarkdown(md string) string {
	r, err := a.getRenderer()
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		a.listen(),
		a.loadFeed(),
		a.loadReadSet(),
		a.startSpinner(),
	}

	switch a.start.Kind {
	case route.KindArticle:
		cmds = append(cmds, a.openArticle(viewer.Ref{ID: a.start.ID}, ""))
	case route.KindPrivacy:
		a.showPrivacy()
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.rerender()
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case stateChangedMsg:
		a.applySnapshot(a.controller.Snapshot())
		return a, tea.Batch(a.listen(), a.startSpinner())

	case readSetMsg:
		a.readSet = msg.read
		a.refreshItems()

	case suggestionsMsg:
		a.searchInput.SetSuggestions(msg.queries)

	case searchFireMsg:
		// A fire that lost a race with esc or enter is dropped.
		if a.view != ViewSearch || msg.query != sanitizeSearchInput(a.searchInput.Value()) {
			return a, nil
		}
		a.setStatus(MsgSearching, StatusInfo)
		return a, tea.Batch(a.runSearch(msg.query), a.startSpinner())

	case articleLoadedMsg:
		if a.article == nil || msg.seq != a.article.seq {
			return a, nil
		}
		a.article.loading = false
		a.article.decision = msg.decision
		a.article.presentation = msg.presentation
		a.article.markdown = msg.markdown
		if msg.decision.URL != "" {
			a.article.url = msg.decision.URL
		}
		if msg.decision.Title != "" {
			a.article.title = msg.decision.Title
		}
		a.clearStatus()
		if a.view == ViewArticle {
			a.viewport.SetContent(a.renderMarkdown(msg.markdown))
			a.viewport.GotoTop()
		}

	case openedMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusError)
		} else {
			a.setStatus(MsgOpenedInBrowser, StatusSuccess)
		}

	case errorMsg:
		a.setStatus(msg.err.Error(), StatusError)

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if a.view == ViewArticle || a.view == ViewPrivacy {
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
	}

	return a, nil
}

// applySnapshot moves the cursor to the top when the list was replaced
// rather than extended.
func (a *App) applySnapshot(snap feedstate.Snapshot) {
	prev := a.snapshot
	a.snapshot = snap
	a.err = snap.Err

	replaced := snap.Query != prev.Query ||
		len(snap.Items) < len(prev.Items) ||
		(len(snap.Items) > 0 && len(prev.Items) > 0 && snap.Items[0].ID != prev.Items[0].ID)
	a.refreshItems()
	if replaced {
		a.list.Select(0)
	}

	if !snap.Loading && (a.status.text == MsgRefreshing || a.status.text == MsgSearching) {
		if snap.SearchMode() && snap.Err == nil {
			a.setStatus(MsgResultsCount(len(snap.Items)), StatusInfo)
		} else {
			a.clearStatus()
		}
	}
}

func (a *App) refreshItems() {
	now := a.now()
	items := make([]list.Item, len(a.snapshot.Items))
	for i, s := range a.snapshot.Items {
		items[i] = contentItem{summary: s, read: a.readSet[s.ID], now: now}
	}
	a.list.SetItems(items)
}

func (a *App) selectedSummary() (api.ContentSummary, bool) {
	item, ok := a.list.SelectedItem().(contentItem)
	if !ok {
		return api.ContentSummary{}, false
	}
	return item.summary, true
}

// maybeLoadMore requests the next page once the cursor is near the end of
// the feed.
func (a *App) maybeLoadMore() tea.Cmd {
	snap := a.snapshot
	n := len(snap.Items)
	if snap.SearchMode() || snap.Loading || n == 0 {
		return nil
	}
	if snap.Total > 0 && n >= snap.Total {
		return nil
	}
	if a.list.Index() < n-loadMoreThreshold {
		return nil
	}
	a.snapshot.Loading = true
	return tea.Batch(a.loadMore(), a.startSpinner())
}

// openArticle switches to the article view and starts the selector.
func (a *App) openArticle(ref viewer.Ref, title string) tea.Cmd {
	if a.view != ViewArticle && a.view != ViewPrivacy {
		a.previousView = a.view
	}
	a.view = ViewArticle
	a.articleSeq++
	a.article = &articleState{
		seq:     a.articleSeq,
		ref:     ref,
		title:   title,
		url:     ref.URL,
		loading: true,
	}
	a.viewport.SetContent("")
	a.setStatus(MsgLoadingArticle, StatusInfo)
	a.layout()
	return tea.Batch(a.selectArticle(a.articleSeq, ref), a.startSpinner())
}

// openSelected opens the highlighted list item and marks it read.
func (a *App) openSelected() tea.Cmd {
	s, ok := a.selectedSummary()
	if !ok {
		return nil
	}
	a.readSet[s.ID] = true
	a.refreshItems()

	cmds := []tea.Cmd{a.markRead(s)}
	if a.view == ViewSearch {
		cmds = append(cmds, a.recordSearch(a.snapshot.Query))
	}
	cmds = append(cmds, a.openArticle(viewer.Ref{ID: s.ID, URL: s.URL}, s.Title))
	return tea.Batch(cmds...)
}

func (a *App) closeArticle() {
	a.article = nil
	a.articleSeq++
	a.clearStatus()
}

func (a *App) showPrivacy() {
	if a.view != ViewPrivacy {
		a.privacyReturn = a.view
	}
	a.view = ViewPrivacy
	a.layout()
	a.viewport.SetContent(a.renderMarkdown(PrivacyNotice))
	a.viewport.GotoTop()
}

// leaveSearch returns to the feed. The controller is only asked to reload
// when it actually holds a query.
func (a *App) leaveSearch() tea.Cmd {
	a.debouncer.Cancel()
	a.searchInput.Reset()
	a.searchInput.Blur()
	a.view = ViewFeed
	a.clearStatus()
	a.layout()

	if a.controller.Snapshot().Query == "" {
		return nil
	}
	a.snapshot.Query = ""
	return tea.Batch(a.runSearch(""), a.startSpinner())
}

// rerender redraws glamour output after a resize.
func (a *App) rerender() {
	switch {
	case a.view == ViewArticle && a.article != nil && !a.article.loading:
		a.viewport.SetContent(a.renderMarkdown(a.article.markdown))
	case a.view == ViewPrivacy:
		a.viewport.SetContent(a.renderMarkdown(PrivacyNotice))
	}
}

func (a *App) layout() {
	// header, separator and status bar
	chrome := 3
	if a.view == ViewSearch {
		chrome += 3
	}
	h := a.height - chrome
	if h < 1 {
		h = 1
	}
	a.list.SetSize(a.width, h)
	a.viewport.Width = a.width
	a.viewport.Height = a.height - 3

	inputWidth := a.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	a.searchInput.Width = inputWidth
}

func (a *App) busy() bool {
	return a.snapshot.Loading || (a.article != nil && a.article.loading)
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = statusLine{text: text, kind: kind}
}

func (a *App) clearStatus() {
	a.status = statusLine{}
}

func (a *App) View() string {
	var content string
	bodyHeight := a.height - 3

	switch a.view {
	case ViewFeed, ViewSearch:
		content = a.listView(bodyHeight)
	case ViewArticle:
		content = a.articleView(bodyHeight)
	case ViewPrivacy:
		content = lipgloss.JoinVertical(lipgloss.Top,
			renderHeader(CompactLogo, "privacy", a.width),
			a.viewport.View(),
		)
	}

	separatorWidth := a.width - 2
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := renderMuted("─" + strings.Repeat("─", separatorWidth))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.getCustomStatusBar())
}

func (a *App) listView(height int) string {
	snap := a.snapshot
	subtitle := MsgFeedCount(len(snap.Items), snap.Total)
	if snap.SearchMode() {
		subtitle = "search: " + snap.Query + " • " + MsgResultsCount(len(snap.Items))
	}
	if snap.Loading && len(snap.Items) > 0 {
		subtitle += " " + a.spinner.View()
	}
	rows := []string{renderHeader(CompactLogo, subtitle, a.width)}

	if a.view == ViewSearch {
		rows = append(rows, renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width))
		height -= 3
	}

	if len(snap.Items) == 0 {
		rows = append(rows, a.emptyState(height-1))
	} else {
		rows = append(rows, a.list.View())
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) emptyState(height int) string {
	snap := a.snapshot
	switch {
	case snap.Loading:
		return renderEmptyState(a.width, height, a.spinner.View()+" "+MsgLoading, "", lipgloss.NewStyle().Foreground(TextColor))
	case snap.Err != nil:
		return renderEmptyState(a.width, height, errorHeadline(snap.Err), MsgRefreshHint(a.keyHandler.keys.refresh), ErrorMessageStyle)
	default:
		return renderEmptyState(a.width, height, MsgNoContent, MsgTryDifferent, lipgloss.NewStyle().Foreground(TextColor).Bold(true))
	}
}

func errorHeadline(err error) string {
	switch {
	case errors.Is(err, feedstate.ErrSearch):
		return "Search failed"
	case errors.Is(err, feedstate.ErrLoadFeed):
		return "Failed to load feed"
	default:
		return err.Error()
	}
}

func (a *App) articleView(height int) string {
	title, subtitle := "article", ""
	if a.article != nil {
		if a.article.title != "" {
			title = singleLine(a.article.title)
		}
		if !a.article.loading {
			subtitle = a.article.decision.Kind.String()
			if p := a.article.presentation; p != nil {
				subtitle += " • " + p.Mode.String()
			}
			if a.article.url != "" {
				subtitle += " • " + truncateMiddle(a.article.url, 48)
			}
		}
	}
	header := renderHeader(title, subtitle, a.width)

	if a.article == nil || a.article.loading {
		return lipgloss.JoinVertical(lipgloss.Top, header,
			renderCentered(a.width, height-1, a.spinner.View()+" "+renderMuted(MsgLoadingArticle)))
	}
	return lipgloss.JoinVertical(lipgloss.Top, header, a.viewport.View())
}

func (a *App) getCustomStatusBar() string {
	bar := lipgloss.NewStyle().Width(a.width).Padding(0, 1).Foreground(MutedColor)

	if a.err != nil && a.view != ViewArticle && a.view != ViewPrivacy {
		return bar.Render(ErrorMessageStyle.Render("✗ " + a.err.Error()))
	}

	parts := make([]string, 0, 8)
	if a.status.text != "" {
		parts = append(parts, a.status.kind.style().Render(a.status.text))
	}
	parts = append(parts, a.keyHandler.GetHelpForCurrentView()...)
	return bar.Render(strings.Join(parts, " • "))
}

package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/feedstate"
	"github.com/pders01/techfirst/internal/storage"
	"github.com/pders01/techfirst/internal/viewer"
)

type fakeSource struct {
	mu          sync.Mutex
	offsets     []int
	searchCalls []string
	total       int
	feedErr     error
	searchItems []api.ContentSummary
}

func (f *fakeSource) FetchFeed(_ context.Context, limit, offset int) (*api.FeedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, offset)
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	var items []api.ContentSummary
	for i := offset; i < offset+limit && i < f.total; i++ {
		items = append(items, summary(int64(i+1)))
	}
	return &api.FeedResponse{Total: f.total, Items: items}, nil
}

func (f *fakeSource) SearchContent(_ context.Context, query string, _ int) (*api.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, query)
	return &api.SearchResponse{Total: len(f.searchItems), Items: f.searchItems}, nil
}

func (f *fakeSource) feedOffsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.offsets...)
}

func (f *fakeSource) searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searchCalls...)
}

func summary(id int64) api.ContentSummary {
	return api.ContentSummary{
		ID:          id,
		Title:       fmt.Sprintf("Story %d", id),
		URL:         fmt.Sprintf("https://example.com/%d", id),
		SourceName:  "Example Wire",
		ContentType: api.TypeNews,
	}
}

type fakeSelector struct {
	mu       sync.Mutex
	refs     []viewer.Ref
	decision viewer.Decision
}

func (f *fakeSelector) Select(_ context.Context, ref viewer.Ref) viewer.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = append(f.refs, ref)
	return f.decision
}

type fakePresenter struct {
	mode viewer.Mode
}

func (p fakePresenter) Name() string { return "fake" }

func (p fakePresenter) Present(_ context.Context, url string) viewer.Presentation {
	return viewer.Presentation{Mode: p.mode, URL: url, Reason: "refused"}
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (o *fakeOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, url)
	return o.err
}

type fakeHistory struct {
	mu       sync.Mutex
	read     map[int64]bool
	searches []string
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{read: map[int64]bool{}}
}

func (h *fakeHistory) ReadSet() (map[int64]bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[int64]bool, len(h.read))
	for k, v := range h.read {
		out[k] = v
	}
	return out, nil
}

func (h *fakeHistory) MarkRead(id int64, _, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.read[id] = true
	return nil
}

func (h *fakeHistory) RecordSearch(query string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.searches = append(h.searches, query)
	return nil
}

func (h *fakeHistory) RecentSearches(limit int) ([]storage.RecentSearch, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []storage.RecentSearch
	for i := len(h.searches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, storage.RecentSearch{Query: h.searches[i]})
	}
	return out, nil
}

type harness struct {
	app      *App
	source   *fakeSource
	ctrl     *feedstate.Controller
	selector *fakeSelector
	opener   *fakeOpener
	history  *fakeHistory
}

func newHarness(t *testing.T, total int) *harness {
	t.Helper()
	h := &harness{
		source:   &fakeSource{total: total},
		selector: &fakeSelector{},
		opener:   &fakeOpener{},
		history:  newFakeHistory(),
	}
	h.ctrl = feedstate.New(h.source, feedstate.WithPageSize(10))
	h.app = NewApp(config.TestConfig(), Deps{
		Controller: h.ctrl,
		Selector:   h.selector,
		Opener:     h.opener,
		History:    h.history,
	})
	h.app.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	h.app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	t.Cleanup(h.app.Shutdown)
	return h
}

// loaded runs the first feed load and hands the result to the app.
func (h *harness) loaded(t *testing.T) {
	t.Helper()
	h.ctrl.LoadFeed(context.Background())
	h.app.Update(stateChangedMsg{})
	require.False(t, h.app.snapshot.Loading)
}

func (h *harness) key(msg tea.KeyMsg) tea.Cmd {
	_, cmd := h.app.Update(msg)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd, expanding batches, and collects the messages that arrive
// within the window. Commands that block longer (listeners, blinks) are
// left behind.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	out := make(chan tea.Msg, 64)
	var run func(c tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, inner := range batch {
					run(inner)
				}
				return
			}
			if msg != nil {
				out <- msg
			}
		}()
	}
	run(cmd)

	var msgs []tea.Msg
	deadline := time.After(250 * time.Millisecond)
	for {
		select {
		case m := <-out:
			msgs = append(msgs, m)
		case <-deadline:
			return msgs
		}
	}
}

func findMsg[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

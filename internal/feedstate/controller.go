// Package feedstate holds the list the user is looking at: either the feed,
// paged with a cursor, or the results of one search.
package feedstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/debuglog"
)

const (
	DefaultPageSize    = 50
	DefaultSearchLimit = 50
)

var (
	ErrLoadFeed = errors.New("failed to load feed")
	ErrSearch   = errors.New("search failed")
)

// Source is the part of the API client the controller needs.
type Source interface {
	FetchFeed(ctx context.Context, limit, offset int) (*api.FeedResponse, error)
	SearchContent(ctx context.Context, query string, limit int) (*api.SearchResponse, error)
}

// Snapshot is a copy of the controller state at one point in time.
type Snapshot struct {
	Items   []api.ContentSummary
	Total   int
	Offset  int
	Query   string
	Loading bool
	Err     error
}

// SearchMode reports whether the list holds search results.
func (s Snapshot) SearchMode() bool {
	return s.Query != ""
}

type requestKind int

const (
	kindNone requestKind = iota
	kindFeed
	kindMore
	kindSearch
)

type Controller struct {
	source      Source
	pageSize    int
	searchLimit int

	mu       sync.Mutex
	items    []api.ContentSummary
	total    int
	offset   int
	query    string
	loading  bool
	err      error
	token    uint64
	inflight requestKind
	subs     []chan struct{}
}

type Option func(*Controller)

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func WithSearchLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

func New(source Source, opts ...Option) *Controller {
	c := &Controller{
		source:      source,
		pageSize:    DefaultPageSize,
		searchLimit: DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) PageSize() int { return c.pageSize }

// begin marks a request as in flight and returns its token. Callers hold mu.
func (c *Controller) begin(kind requestKind) uint64 {
	c.token++
	c.loading = true
	c.inflight = kind
	return c.token
}

// finish reports whether token is still current and, if so, clears loading.
// Callers hold mu.
func (c *Controller) finish(token uint64) bool {
	if token != c.token {
		return false
	}
	c.loading = false
	c.inflight = kindNone
	return true
}

// supersede invalidates whatever is in flight. Callers hold mu.
func (c *Controller) supersede() {
	c.token++
	c.loading = false
	c.inflight = kindNone
}

// LoadFeed replaces the list with the first feed page. It does nothing while
// another request is loading.
func (c *Controller) LoadFeed(ctx context.Context) {
	c.loadFeed(ctx, nil)
}

// loadFeed runs onFailure with mu held when the page cannot be loaded, so
// callers can put the list and cursor back into a consistent state.
func (c *Controller) loadFeed(ctx context.Context, onFailure func()) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return
	}
	c.err = nil
	token := c.begin(kindFeed)
	limit := c.pageSize
	c.mu.Unlock()
	c.notify()

	resp, err := c.source.FetchFeed(ctx, limit, 0)

	c.mu.Lock()
	if !c.finish(token) {
		c.mu.Unlock()
		debuglog.Debugf("discarding stale feed response (token %d)", token)
		return
	}
	if err != nil {
		c.err = fmt.Errorf("%w: %w", ErrLoadFeed, err)
		if onFailure != nil {
			onFailure()
		}
		c.mu.Unlock()
		debuglog.WithFields(map[string]any{"op": "load_feed", "offset": 0}).Errorf("request failed: %v", err)
		c.notify()
		return
	}
	c.items = append([]api.ContentSummary(nil), resp.Items...)
	c.total = resp.Total
	c.offset = limit
	c.mu.Unlock()
	c.notify()
}

// LoadMore appends the next feed page. It does nothing in search mode or
// while loading. The cursor advances by a full page even when the page comes
// back short or empty.
func (c *Controller) LoadMore(ctx context.Context) {
	c.mu.Lock()
	if c.loading || c.query != "" {
		c.mu.Unlock()
		return
	}
	c.err = nil
	token := c.begin(kindMore)
	limit, offset := c.pageSize, c.offset
	c.mu.Unlock()
	c.notify()

	resp, err := c.source.FetchFeed(ctx, limit, offset)

	c.mu.Lock()
	if !c.finish(token) {
		c.mu.Unlock()
		debuglog.Debugf("discarding stale page at offset %d", offset)
		return
	}
	if err != nil {
		c.mu.Unlock()
		debuglog.WithFields(map[string]any{"op": "load_more", "offset": offset}).Errorf("request failed: %v", err)
		c.notify()
		return
	}
	c.items = append(c.items, resp.Items...)
	c.offset = offset + limit
	c.mu.Unlock()
	c.notify()
}

// Search replaces the list with results for query. A blank query returns to
// the feed. A new search supersedes whatever is in flight.
func (c *Controller) Search(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		c.mu.Lock()
		leaving := c.query != ""
		c.query = ""
		if c.inflight == kindSearch {
			c.supersede()
		}
		c.mu.Unlock()

		var dropResults func()
		if leaving {
			// search results must not stay behind as a feed list
			dropResults = func() {
				c.items = nil
				c.total = 0
				c.offset = 0
			}
		}
		c.loadFeed(ctx, dropResults)
		return
	}

	c.mu.Lock()
	c.query = query
	c.err = nil
	token := c.begin(kindSearch)
	limit := c.searchLimit
	c.mu.Unlock()
	c.notify()

	resp, err := c.source.SearchContent(ctx, query, limit)

	c.mu.Lock()
	if !c.finish(token) {
		c.mu.Unlock()
		debuglog.Debugf("discarding stale results for %q", query)
		return
	}
	if err != nil {
		c.err = fmt.Errorf("%w: %w", ErrSearch, err)
		c.mu.Unlock()
		debuglog.WithFields(map[string]any{"op": "search", "query": query}).Errorf("request failed: %v", err)
		c.notify()
		return
	}
	c.items = append([]api.ContentSummary(nil), resp.Items...)
	c.total = resp.Total
	c.mu.Unlock()
	c.notify()
}

// Refresh resets the cursor and reissues the current search, or reloads the
// feed when there is none.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	prev := c.offset
	c.offset = 0
	c.supersede()
	query := c.query
	c.mu.Unlock()

	if query != "" {
		c.Search(ctx, query)
		return
	}
	// a failed reload keeps the old list, so it keeps the old cursor too
	c.loadFeed(ctx, func() { c.offset = prev })
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Items:   append([]api.ContentSummary(nil), c.items...),
		Total:   c.total,
		Offset:  c.offset,
		Query:   c.query,
		Loading: c.loading,
		Err:     c.err,
	}
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals coalesce; a slow reader sees at least the latest one.
func (c *Controller) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

func (c *Controller) notify() {
	c.mu.Lock()
	subs := c.subs
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

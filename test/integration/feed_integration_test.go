package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/feedstate"
	"github.com/pders01/techfirst/internal/frame"
	"github.com/pders01/techfirst/internal/storage"
	"github.com/pders01/techfirst/internal/viewer"
)

const totalItems = 25

// backend serves a small TechFirstSearch API plus one external page.
type backend struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []string

	// slowStarted is closed once a request for query "slow" arrives; the
	// handler then blocks until releaseSlow is closed.
	slowStarted chan struct{}
	releaseSlow chan struct{}
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		slowStarted: make(chan struct{}),
		releaseSlow: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/feed", b.feed)
	mux.HandleFunc("/api/search", b.search)
	mux.HandleFunc("/api/article/", b.article)
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, externalPage)
	})
	mux.HandleFunc("/denied", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("X-Frame-Options", "DENY")
		fmt.Fprint(w, externalPage)
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(func() {
		select {
		case <-b.releaseSlow:
		default:
			close(b.releaseSlow)
		}
		b.srv.Close()
	})
	return b
}

func (b *backend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.URL.Path+"?"+r.URL.RawQuery)
}

func (b *backend) summary(id int) map[string]any {
	return map[string]any{
		"id":             id,
		"title":          fmt.Sprintf("Story %d", id),
		"url":            fmt.Sprintf("%s/page?id=%d", b.srv.URL, id),
		"source_name":    "Example Source",
		"content_type":   []string{"paper", "news", "essay"}[id%3],
		"published_date": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(id) * time.Hour).Format("2006-01-02T15:04:05"),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (b *backend) feed(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items := []map[string]any{}
	for id := offset + 1; id <= totalItems && id <= offset+limit; id++ {
		items = append(items, b.summary(id))
	}
	writeJSON(w, map[string]any{"total": totalItems, "items": items})
}

func (b *backend) search(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	q := r.URL.Query().Get("q")
	if q == "slow" {
		close(b.slowStarted)
		<-b.releaseSlow
		writeJSON(w, map[string]any{"total": 1, "items": []map[string]any{b.summary(24)}})
		return
	}
	if q == "broken" {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	items := []map[string]any{}
	for id := 1; id <= totalItems; id++ {
		if strings.Contains(fmt.Sprintf("story %d", id), strings.ToLower(q)) {
			items = append(items, b.summary(id))
		}
	}
	writeJSON(w, map[string]any{"total": len(items), "items": items})
}

// article: 1 has stored HTML, 2 only reader text, 3 nothing, 4 points at a
// page that refuses framing. Anything else is a 404.
func (b *backend) article(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/article/"))
	if id < 1 || id > 4 {
		http.Error(w, `{"detail":"Article not found"}`, http.StatusNotFound)
		return
	}

	detail := b.summary(id)
	switch id {
	case 1:
		detail["full_content"] = "<p>" + strings.Repeat("Stored article body with enough text. ", 5) + "</p><script>alert(1)</script>"
	case 2:
		detail["reader_mode_content"] = strings.Repeat("First paragraph of reader text. ", 3) + "\n\n" + strings.Repeat("Second paragraph. ", 4)
	case 4:
		detail["url"] = b.srv.URL + "/denied"
	}
	writeJSON(w, detail)
}

const externalPage = `<!DOCTYPE html>
<html><head><title>External Story</title></head>
<body><nav>Home | About</nav>
<article><h1>External Story</h1>
<p>This page was fetched from the original site because the stored copy was empty.
It has a few sentences so the readability extractor treats it as the main content.</p>
<p>A second paragraph follows with more detail about the story and its background,
long enough to look like an actual article body rather than boilerplate.</p>
<p>Readers who follow the link from the aggregated feed expect to see the same words
the author published, so the inline view keeps the paragraphs and drops the chrome.</p>
<p>The last paragraph closes the story with a short summary of what happened next,
which also pushes the page past the length extractors want before they trust it.</p>
</article><footer>Copyright</footer></body></html>`

func newClient(t *testing.T, b *backend) *api.Client {
	t.Helper()
	cfg := config.TestConfig().API
	cfg.BaseURL = b.srv.URL
	c, err := api.NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestIntegration_FeedPaging(t *testing.T) {
	b := newBackend(t)
	ctrl := feedstate.New(newClient(t, b), feedstate.WithPageSize(10))
	ctx := context.Background()

	ctrl.LoadFeed(ctx)
	snap := ctrl.Snapshot()
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Items, 10)
	assert.Equal(t, totalItems, snap.Total)
	assert.Equal(t, api.TypeNews, snap.Items[0].ContentType)
	assert.False(t, snap.Items[0].PublishedDate.IsZero())

	ctrl.LoadMore(ctx)
	ctrl.LoadMore(ctx)
	snap = ctrl.Snapshot()
	assert.Len(t, snap.Items, totalItems)
	assert.Equal(t, 30, snap.Offset)

	// past the end: cursor still advances, nothing appended
	ctrl.LoadMore(ctx)
	snap = ctrl.Snapshot()
	assert.Len(t, snap.Items, totalItems)
	assert.Equal(t, 40, snap.Offset)

	ids := map[int64]bool{}
	for _, it := range snap.Items {
		assert.False(t, ids[it.ID], "duplicate id %d", it.ID)
		ids[it.ID] = true
	}
}

func TestIntegration_SearchAndReturn(t *testing.T) {
	b := newBackend(t)
	ctrl := feedstate.New(newClient(t, b), feedstate.WithPageSize(10))
	ctx := context.Background()

	ctrl.LoadFeed(ctx)
	ctrl.Search(ctx, "story 2")
	snap := ctrl.Snapshot()
	require.NoError(t, snap.Err)
	assert.True(t, snap.SearchMode())
	// "story 2" matches 2 and 20-25
	assert.Len(t, snap.Items, 7)

	// load more is ignored in search mode
	ctrl.LoadMore(ctx)
	assert.Len(t, ctrl.Snapshot().Items, 7)

	ctrl.Search(ctx, "broken")
	snap = ctrl.Snapshot()
	assert.ErrorIs(t, snap.Err, feedstate.ErrSearch)

	ctrl.Search(ctx, "   ")
	snap = ctrl.Snapshot()
	assert.False(t, snap.SearchMode())
	assert.NoError(t, snap.Err)
	assert.Len(t, snap.Items, 10)
}

func TestIntegration_StaleSearchDiscarded(t *testing.T) {
	b := newBackend(t)
	ctrl := feedstate.New(newClient(t, b), feedstate.WithPageSize(10))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Search(ctx, "slow")
	}()

	select {
	case <-b.slowStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("slow search never reached the server")
	}

	ctrl.Search(ctx, "story 7")
	close(b.releaseSlow)
	<-done

	snap := ctrl.Snapshot()
	assert.Equal(t, "story 7", snap.Query)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(7), snap.Items[0].ID)
	assert.False(t, snap.Loading)
}

func TestIntegration_ArticleSelection(t *testing.T) {
	b := newBackend(t)
	client := newClient(t, b)
	sel := viewer.NewSelector(client, viewer.DefaultThresholds())
	pres := frame.NewPresenter(config.TestConfig().Viewer, "", frame.WithAllowLocal())
	ctx := context.Background()

	t.Run("stored html", func(t *testing.T) {
		d := sel.Select(ctx, viewer.Ref{ID: 1})
		assert.Equal(t, viewer.KindFullHTML, d.Kind)
		assert.Contains(t, d.HTML, "Stored article body")
		assert.NotContains(t, d.HTML, "<script>")
	})

	t.Run("reader text", func(t *testing.T) {
		d := sel.Select(ctx, viewer.Ref{ID: 2})
		assert.Equal(t, viewer.KindReaderHTML, d.Kind)
		assert.Equal(t, 2, strings.Count(d.HTML, "<p>"))
	})

	t.Run("external page is framed", func(t *testing.T) {
		d := sel.Select(ctx, viewer.Ref{ID: 3})
		require.Equal(t, viewer.KindExternal, d.Kind)

		p := pres.Present(ctx, d.URL)
		assert.Equal(t, viewer.ModeEmbedded, p.Mode)
		assert.Contains(t, p.HTML, "second paragraph follows")
		assert.Equal(t, d.URL, p.URL)
	})

	t.Run("framing refused", func(t *testing.T) {
		d := sel.Select(ctx, viewer.Ref{ID: 4})
		require.Equal(t, viewer.KindExternal, d.Kind)

		p := pres.Present(ctx, d.URL)
		assert.Equal(t, viewer.ModeLinkOnly, p.Mode)
		assert.Contains(t, p.Reason, "X-Frame-Options")
	})

	t.Run("missing article", func(t *testing.T) {
		d := sel.Select(ctx, viewer.Ref{ID: 99, URL: "https://example.com/99"})
		assert.Equal(t, viewer.KindExternal, d.Kind)
		assert.Equal(t, "https://example.com/99", d.URL)
	})

	t.Run("invalid id", func(t *testing.T) {
		d := sel.Select(ctx, viewer.Ref{ID: 0})
		assert.Equal(t, viewer.KindNotFound, d.Kind)
	})
}

func TestIntegration_ReadMarksAndSearches(t *testing.T) {
	b := newBackend(t)
	ctrl := feedstate.New(newClient(t, b), feedstate.WithPageSize(10))
	ctrl.LoadFeed(context.Background())

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"), time.Second)
	require.NoError(t, err)
	defer store.Close()

	first := ctrl.Snapshot().Items[0]
	require.NoError(t, store.MarkRead(first.ID, first.Title, first.URL))
	require.NoError(t, store.RecordSearch("story 2"))
	require.NoError(t, store.RecordSearch("rust"))

	read, err := store.ReadSet()
	require.NoError(t, err)
	assert.True(t, read[first.ID])
	assert.Len(t, read, 1)

	recent, err := store.RecentSearches(10)
	require.NoError(t, err)
	queries := make([]string, len(recent))
	for i, r := range recent {
		queries[i] = r.Query
	}
	assert.ElementsMatch(t, []string{"story 2", "rust"}, queries)
}

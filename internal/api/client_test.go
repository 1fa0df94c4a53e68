package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/techfirst/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.TestConfig().API
	cfg.BaseURL = srv.URL
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

const feedJSON = `{
  "total": 2,
  "items": [
    {"id": 1, "title": "Attention Is All You Need", "url": "https://arxiv.org/abs/1706.03762",
     "source_name": "arXiv", "content_type": "Paper", "published_date": "2025-01-02T15:04:05.123456",
     "fetched_date": "2025-01-02T16:00:00", "created_at": "2025-01-02T16:00:00Z",
     "tags": ["ml"], "ai_summary": "Transformers."},
    {"id": 2, "title": "Show HN", "url": "https://news.ycombinator.com/item?id=1",
     "source_name": "Hacker News", "content_type": "podcast", "published_date": "2025-01-01T00:00:00+00:00",
     "fetched_date": "2025-01-01T00:00:00", "created_at": "2025-01-01T00:00:00"}
  ]
}`

func TestClient_FetchFeed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feed", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		assert.Equal(t, "techfirst-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedJSON))
	})

	resp, err := c.FetchFeed(context.Background(), 50, 100)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 2, resp.Total)

	first := resp.Items[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, TypePaper, first.ContentType)
	assert.Equal(t, "arXiv", first.SourceName)
	assert.Equal(t, "Transformers.", first.AISummary)
	assert.Equal(t, time.Date(2025, 1, 2, 15, 4, 5, 123456000, time.UTC), first.PublishedDate.Time.UTC())

	// unknown types fall back to article
	assert.Equal(t, TypeArticle, resp.Items[1].ContentType)
}

func TestClient_SearchContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "rust async", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"total": 0, "items": []}`))
	})

	resp, err := c.SearchContent(context.Background(), "rust async", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
	assert.Empty(t, resp.Items)
}

func TestClient_FetchArticle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/article/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 42, "title": "T", "url": "https://x.org/a", "source_name": "X",
			"content_type": "essay", "published_date": "2025-03-01T10:00:00",
			"fetched_date": null, "created_at": "2025-03-01T10:00:00",
			"full_content": "<p>body</p>", "reader_mode_content": "body", "ai_key_points": ["a", "b"]}`))
	})

	d, err := c.FetchArticle(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), d.ID)
	assert.Equal(t, TypeEssay, d.ContentType)
	assert.Equal(t, "<p>body</p>", d.FullContent)
	assert.Equal(t, "body", d.ReaderModeContent)
	assert.Equal(t, []string{"a", "b"}, d.AIKeyPoints)
	assert.True(t, d.FetchedDate.IsZero())
}

func TestClient_CheckHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "healthy", "database": "connected", "redis": "connected",
			"total_content": 1234, "last_fetch": null}`))
	})

	h, err := c.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
	assert.Equal(t, 1234, h.TotalContent)
	assert.True(t, h.LastFetch.IsZero())
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	_, err := c.FetchArticle(context.Background(), 7)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "/api/article/7", se.Endpoint)
	assert.True(t, IsNotFound(err))
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := c.FetchFeed(context.Background(), 50, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding /api/feed")
	assert.False(t, IsNotFound(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchFeed(ctx, 50, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_BaseURL(t *testing.T) {
	c, err := NewClient(config.APIConfig{})
	require.NoError(t, err)
	assert.Equal(t, config.ProductionBaseURL, c.BaseURL())

	c, err = NewClient(config.APIConfig{Environment: config.EnvLocal})
	require.NoError(t, err)
	assert.Equal(t, config.LocalBaseURL, c.BaseURL())

	_, err = NewClient(config.APIConfig{BaseURL: "ftp://example.org"})
	assert.Error(t, err)
}

func TestBaseURLWithPathPrefix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c, err := NewClient(config.APIConfig{BaseURL: srv.URL + "/proxy/"})
	require.NoError(t, err)
	_, err = c.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/proxy/api/health", gotPath)
}

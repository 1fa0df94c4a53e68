package viewer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/techfirst/internal/api"
)

type fakeFetcher struct {
	detail *api.ContentDetail
	err    error
	calls  int
}

func (f *fakeFetcher) FetchArticle(_ context.Context, _ int64) (*api.ContentDetail, error) {
	f.calls++
	return f.detail, f.err
}

func detail(id int64, full, reader string) *api.ContentDetail {
	return &api.ContentDetail{
		ContentSummary: api.ContentSummary{
			ID:    id,
			Title: "Paper",
			URL:   "https://arxiv.org/abs/1",
		},
		FullContent:       full,
		ReaderModeContent: reader,
	}
}

func TestSelect_InvalidID(t *testing.T) {
	f := &fakeFetcher{}
	s := NewSelector(f, DefaultThresholds())

	for _, id := range []int64{0, -3} {
		d := s.Select(context.Background(), Ref{ID: id, URL: "https://x.org"})
		assert.Equal(t, KindNotFound, d.Kind)
	}
	assert.Equal(t, 0, f.calls)
}

func TestSelect_FetchFailure(t *testing.T) {
	f := &fakeFetcher{err: &api.StatusError{Code: 502, Endpoint: "/api/article/5"}}
	s := NewSelector(f, DefaultThresholds())

	d := s.Select(context.Background(), Ref{ID: 5, URL: "https://blog.example.org/post"})
	assert.Equal(t, KindExternal, d.Kind)
	assert.Equal(t, "https://blog.example.org/post", d.URL)

	d = s.Select(context.Background(), Ref{ID: 5})
	assert.Equal(t, KindNotFound, d.Kind)
}

func TestSelect_MismatchedID(t *testing.T) {
	f := &fakeFetcher{detail: detail(99, strings.Repeat("<p>x</p>", 50), "")}
	s := NewSelector(f, DefaultThresholds())

	d := s.Select(context.Background(), Ref{ID: 5, URL: "https://from.list/5"})
	assert.Equal(t, KindExternal, d.Kind)
	assert.Equal(t, "https://from.list/5", d.URL)
}

func TestSelect_FullHTMLSanitized(t *testing.T) {
	full := "<h1>Title</h1><script>alert(1)</script><p>" + strings.Repeat("content ", 30) + "</p>"
	f := &fakeFetcher{detail: detail(5, full, "")}
	s := NewSelector(f, DefaultThresholds())

	d := s.Select(context.Background(), Ref{ID: 5})
	require.Equal(t, KindFullHTML, d.Kind)
	assert.Contains(t, d.HTML, "<h1>Title</h1>")
	assert.NotContains(t, d.HTML, "<script")
	assert.Equal(t, "https://arxiv.org/abs/1", d.URL)
	assert.Equal(t, "Paper", d.Title)
}

func TestSelect_ShortFullFallsBackToReader(t *testing.T) {
	reader := "First paragraph " + strings.Repeat("x", 80) + ".\n\nSecond paragraph."
	f := &fakeFetcher{detail: detail(5, strings.Repeat("y", 50), reader)}
	s := NewSelector(f, DefaultThresholds())

	d := s.Select(context.Background(), Ref{ID: 5})
	require.Equal(t, KindReaderHTML, d.Kind)
	assert.Equal(t, 2, strings.Count(d.HTML, "<p>"))
}

func TestSelect_ShortFullAndShortReaderGoExternal(t *testing.T) {
	f := &fakeFetcher{detail: detail(5, strings.Repeat("y", 50), "too short")}
	s := NewSelector(f, DefaultThresholds())

	d := s.Select(context.Background(), Ref{ID: 5, URL: "https://list.url"})
	assert.Equal(t, KindExternal, d.Kind)
	assert.Equal(t, "https://arxiv.org/abs/1", d.URL, "article URL wins over the list URL")
	assert.NotNil(t, d.Detail)
}

func TestSelect_GarbageFullContent(t *testing.T) {
	f := &fakeFetcher{detail: detail(5, body(1000, 200), "")}
	s := NewSelector(f, DefaultThresholds())

	d := s.Select(context.Background(), Ref{ID: 5})
	assert.Equal(t, KindExternal, d.Kind)
}

func TestSelect_NoURLAnywhere(t *testing.T) {
	dt := detail(5, "", "")
	dt.URL = ""
	s := NewSelector(&fakeFetcher{detail: dt}, DefaultThresholds())

	d := s.Select(context.Background(), Ref{ID: 5})
	assert.Equal(t, KindNotFound, d.Kind)
}

func TestSelect_NilDetail(t *testing.T) {
	s := NewSelector(&fakeFetcher{err: errors.New("x")}, DefaultThresholds())
	d := s.Select(context.Background(), Ref{ID: 1, URL: "https://a.org"})
	assert.Equal(t, KindExternal, d.Kind)
}

func TestLinkOnlyPresenter(t *testing.T) {
	p := LinkOnly{}
	got := p.Present(context.Background(), "https://a.org")
	assert.Equal(t, ModeLinkOnly, got.Mode)
	assert.Equal(t, "https://a.org", got.URL)
	assert.Equal(t, "link-only", got.Mode.String())
}

package viewer

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/debuglog"
)

type Kind int

const (
	KindNotFound Kind = iota
	KindFullHTML
	KindReaderHTML
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindFullHTML:
		return "full"
	case KindReaderHTML:
		return "reader"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Ref is what the caller knows about an article before fetching it: the ID
// from the list or a deep link, and the URL if it has one.
type Ref struct {
	ID  int64
	URL string
}

type Decision struct {
	Kind   Kind
	HTML   string
	URL    string
	Title  string
	Detail *api.ContentDetail
	Reason string
}

// ArticleFetcher is satisfied by *api.Client.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, id int64) (*api.ContentDetail, error)
}

type Selector struct {
	fetcher    ArticleFetcher
	thresholds Thresholds
	policy     *bluemonday.Policy
}

func NewSelector(fetcher ArticleFetcher, th Thresholds) *Selector {
	return &Selector{
		fetcher:    fetcher,
		thresholds: th,
		policy:     bluemonday.UGCPolicy(),
	}
}

// Select decides how to show the article: stored HTML, reconstructed reader
// text, or the external page.
func (s *Selector) Select(ctx context.Context, ref Ref) Decision {
	if ref.ID <= 0 {
		return Decision{Kind: KindNotFound, Reason: fmt.Sprintf("invalid article id %d", ref.ID)}
	}

	log := debuglog.WithFields(map[string]any{"article": ref.ID})

	detail, err := s.fetcher.FetchArticle(ctx, ref.ID)
	if err != nil {
		log.Warnf("article fetch failed, using external view: %v", err)
		return external(ref.URL, "", nil, "article could not be fetched")
	}
	if detail == nil || detail.ID != ref.ID {
		log.Warnf("article response did not match request, using external view")
		return external(ref.URL, "", nil, "article response did not match")
	}

	if s.thresholds.UsableHTML(detail.FullContent) {
		return Decision{
			Kind:   KindFullHTML,
			HTML:   s.policy.Sanitize(detail.FullContent),
			URL:    preferURL(detail.URL, ref.URL),
			Title:  detail.Title,
			Detail: detail,
		}
	}

	if s.thresholds.UsableReader(detail.ReaderModeContent) {
		return Decision{
			Kind:   KindReaderHTML,
			HTML:   ReconstructHTML(detail.ReaderModeContent),
			URL:    preferURL(detail.URL, ref.URL),
			Title:  detail.Title,
			Detail: detail,
		}
	}

	log.Debugf("no usable stored content, using external view")
	return external(preferURL(detail.URL, ref.URL), detail.Title, detail, "no usable stored content")
}

func external(url, title string, detail *api.ContentDetail, reason string) Decision {
	if url == "" {
		return Decision{Kind: KindNotFound, Title: title, Detail: detail, Reason: reason + " and no link is known"}
	}
	return Decision{Kind: KindExternal, URL: url, Title: title, Detail: detail, Reason: reason}
}

func preferURL(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

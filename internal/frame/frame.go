// Package frame renders an external page inline, the way a sandboxed iframe
// would, and backs off to a plain link when the site forbids embedding.
package frame

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/debuglog"
	"github.com/pders01/techfirst/internal/validation"
	"github.com/pders01/techfirst/internal/viewer"
)

const (
	defaultTimeout = 10 * time.Second
	maxPageSize    = 5 << 20
)

type Presenter struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	validator *validation.URLValidator
	policy    *bluemonday.Policy
}

type Option func(*Presenter)

// WithAllowLocal lets the presenter fetch localhost and private addresses.
func WithAllowLocal() Option {
	return func(p *Presenter) {
		p.validator = validation.NewURLValidator(true)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(p *Presenter) {
		p.client = hc
	}
}

func NewPresenter(cfg config.ViewerConfig, userAgent string, opts ...Option) *Presenter {
	timeout := cfg.FrameTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = "techfirst/1.0"
	}

	p := &Presenter{
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		userAgent: userAgent,
		validator: validation.NewURLValidator(false),
		policy:    bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Presenter) Name() string { return "frame" }

func linkOnly(u, reason string) viewer.Presentation {
	return viewer.Presentation{Mode: viewer.ModeLinkOnly, URL: u, Reason: reason}
}

// Present fetches rawURL and returns its readable content, or a link-only
// presentation when the page cannot or may not be embedded.
func (p *Presenter) Present(ctx context.Context, rawURL string) viewer.Presentation {
	log := debuglog.WithFields(map[string]any{"url": rawURL})

	clean, err := p.validator.ValidateExternal(rawURL)
	if err != nil {
		return linkOnly(rawURL, err.Error())
	}
	pageURL, _ := url.Parse(clean)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clean, http.NoBody)
	if err != nil {
		return linkOnly(rawURL, fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warnf("page fetch failed: %v", err)
		return linkOnly(rawURL, "page could not be loaded")
	}
	defer resp.Body.Close()

	if reason := refusal(resp); reason != "" {
		log.Infof("embedding refused: %s", reason)
		return linkOnly(rawURL, reason)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return linkOnly(rawURL, "page could not be read")
	}

	title, content := p.extract(body, pageURL)
	if content == "" {
		log.Infof("no readable content extracted")
		return linkOnly(rawURL, "no readable content on page")
	}

	return viewer.Presentation{
		Mode:  viewer.ModeEmbedded,
		URL:   rawURL,
		Title: title,
		HTML:  p.policy.Sanitize(content),
	}
}

// extract tries readability first and trafilatura second. The returned HTML
// is not yet sanitized.
func (p *Presenter) extract(body []byte, pageURL *url.URL) (string, string) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" && article.Content != "" {
		return article.Title, article.Content
	}
	if err != nil {
		debuglog.Debugf("readability failed on %s: %v", pageURL, err)
	}

	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		Deduplicate:     true,
		OriginalURL:     pageURL,
	})
	if err != nil || result == nil {
		return "", ""
	}
	text := strings.TrimSpace(result.ContentText)
	if text == "" {
		return "", ""
	}
	return result.Metadata.Title, viewer.ReconstructHTML(text)
}

// refusal returns why the response may not be embedded, or "".
func refusal(resp *http.Response) string {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Sprintf("page returned HTTP %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != "text/html" && mt != "application/xhtml+xml") {
			return fmt.Sprintf("page is not HTML (%s)", ct)
		}
	}

	if reason := frameOptionsRefusal(resp.Header.Get("X-Frame-Options")); reason != "" {
		return reason
	}
	for _, csp := range resp.Header.Values("Content-Security-Policy") {
		if reason := frameAncestorsRefusal(csp); reason != "" {
			return reason
		}
	}
	return ""
}

func frameOptionsRefusal(v string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	switch {
	case v == "":
		return ""
	case v == "DENY", v == "SAMEORIGIN", strings.HasPrefix(v, "ALLOW-FROM"):
		return "site forbids embedding (X-Frame-Options " + v + ")"
	default:
		return ""
	}
}

func frameAncestorsRefusal(csp string) string {
	for _, directive := range strings.Split(csp, ";") {
		fields := strings.Fields(strings.TrimSpace(directive))
		if len(fields) == 0 || !strings.EqualFold(fields[0], "frame-ancestors") {
			continue
		}
		for _, src := range fields[1:] {
			if src == "*" {
				return ""
			}
		}
		return "site forbids embedding (CSP frame-ancestors)"
	}
	return ""
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/debuglog"
	"github.com/pders01/techfirst/internal/validation"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "techfirst/1.0"

	// cap on response bodies; a feed page of 50 items is well under this
	maxBodySize = 16 << 20
)

// StatusError is returned for any HTTP status of 400 or above.
type StatusError struct {
	Code     int
	Endpoint string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP error: %d", e.Endpoint, e.Code)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Client struct {
	baseURL   *url.URL
	client    *http.Client
	userAgent string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func NewClient(cfg config.APIConfig, opts ...Option) (*Client, error) {
	raw := cfg.ResolveBaseURL()
	allowLocal := cfg.Environment == config.EnvLocal || cfg.BaseURL != ""
	if err := validation.NewURLValidator(allowLocal).ValidateBaseURL(raw); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	c := &Client{
		baseURL:   base,
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchFeed returns one page of the feed, newest first.
func (c *Client) FetchFeed(ctx context.Context, limit, offset int) (*FeedResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out FeedResponse
	if err := c.get(ctx, "/api/feed", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchContent(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var out SearchResponse
	if err := c.get(ctx, "/api/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchArticle(ctx context.Context, id int64) (*ContentDetail, error) {
	var out ContentDetail
	if err := c.get(ctx, "/api/article/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckHealth(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.get(ctx, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	debuglog.WithFields(map[string]any{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"took":     time.Since(start).Round(time.Millisecond),
	}).Debugf("api request")

	if resp.StatusCode >= 400 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Endpoint: endpoint}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return nil
}

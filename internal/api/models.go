package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/pders01/techfirst/internal/debuglog"
)

// ContentType classifies a record. The backend is free to invent new kinds,
// so decoding never fails: anything unrecognised becomes TypeArticle.
type ContentType string

const (
	TypePaper    ContentType = "paper"
	TypeResearch ContentType = "research"
	TypeNews     ContentType = "news"
	TypeTutorial ContentType = "tutorial"
	TypeEssay    ContentType = "essay"
	TypeArticle  ContentType = "article"
	TypePost     ContentType = "post"
)

var knownTypes = map[ContentType]bool{
	TypePaper:    true,
	TypeResearch: true,
	TypeNews:     true,
	TypeTutorial: true,
	TypeEssay:    true,
	TypeArticle:  true,
	TypePost:     true,
}

// ParseContentType normalises a wire value.
func ParseContentType(s string) ContentType {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if knownTypes[ct] {
		return ct
	}
	return TypeArticle
}

func (c *ContentType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null or a non-string value
		*c = TypeArticle
		return nil
	}
	*c = ParseContentType(s)
	return nil
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO form the backend
// emits for naive datetimes, which is read as UTC. Values that cannot be read
// decode to the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		debuglog.Debugf("ignoring non-string timestamp %s", data)
		return nil
	}
	if s == "" {
		return nil
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}

	// one bad date must not fail a whole page
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		debuglog.Debugf("ignoring unparseable timestamp %q: %v", s, err)
		return nil
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

type ContentSummary struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	URL           string      `json:"url"`
	SourceName    string      `json:"source_name"`
	ContentType   ContentType `json:"content_type"`
	PublishedDate Timestamp   `json:"published_date"`
	ThumbnailURL  string      `json:"thumbnail_url,omitempty"`
	Author        string      `json:"author,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	FetchedDate   Timestamp   `json:"fetched_date"`
	CreatedAt     Timestamp   `json:"created_at"`
	AISummary     string      `json:"ai_summary,omitempty"`
}

type ContentDetail struct {
	ContentSummary
	FullContent       string   `json:"full_content,omitempty"`
	ReaderModeContent string   `json:"reader_mode_content,omitempty"`
	AIKeyPoints       []string `json:"ai_key_points,omitempty"`
}

type FeedResponse struct {
	Total int              `json:"total"`
	Items []ContentSummary `json:"items"`
}

type SearchResponse struct {
	Total int              `json:"total"`
	Items []ContentSummary `json:"items"`
}

// Health mirrors the backend's health document. Every field is optional
// because the backend owns the shape.
type Health struct {
	Status       string    `json:"status"`
	Database     string    `json:"database,omitempty"`
	Redis        string    `json:"redis,omitempty"`
	TotalContent int       `json:"total_content,omitempty"`
	LastFetch    Timestamp `json:"last_fetch"`
}

func (h Health) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy") || strings.EqualFold(h.Status, "ok")
}

package storage

import "time"

// ReadMark records that the user opened an article.
type ReadMark struct {
	ID     int64     `json:"id"`
	Title  string    `json:"title,omitempty"`
	URL    string    `json:"url,omitempty"`
	ReadAt time.Time `json:"read_at"`
}

// RecentSearch is a query the user ran, kept for suggestions.
type RecentSearch struct {
	Query    string    `json:"query"`
	LastUsed time.Time `json:"last_used"`
	Count    int       `json:"count"`
}

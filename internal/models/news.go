package models

import "time"

// Placeholders used when a feed entry omits the corresponding field.
const (
	DefaultTitle   = "No title"
	DefaultLink    = "#"
	DefaultSnippet = "No description available"
)

// NewsItem is one feed entry that carries an image, flattened for the dashboard.
// Feed is filled locally from the source URL and is not serialized.
type NewsItem struct {
	Title          string `json:"title"`
	Link           string `json:"link"`
	ContentSnippet string `json:"contentSnippet"`
	Image          string `json:"image"`
	Feed           string `json:"-"`
}

// ArchivedNews is a NewsItem as stored in the archive.
type ArchivedNews struct {
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	ContentSnippet string    `json:"contentSnippet"`
	Image          string    `json:"image"`
	Feed           string    `json:"feed"`
	SeenAt         time.Time `json:"seen_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// IPONews is an article attached to an IPO.
type IPONews struct {
	ID            uuid.UUID `json:"id"`
	IPOID         uuid.UUID `json:"ipo_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Source        string    `json:"source"`
	PublishedDate time.Time `json:"published_date"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewsSource is an RSS feed scanned for IPO coverage.
type NewsSource struct {
	Name   string `json:"name"`
	RSSURL string `json:"rss_url"`
}

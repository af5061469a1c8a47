package fetcher

import "context"

// FeedItem is a single article reference pulled from a syndication feed.
// Published keeps the feed's original date string and may be empty.
type FeedItem struct {
	Title       string
	Link        string
	Description string
	Published   string
}

// ItemFetcher retrieves the most recent items from a feed URL.
type ItemFetcher interface {
	FetchItems(ctx context.Context, feedURL string, limit int) ([]FeedItem, error)
}

package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/scipunch/feedvoice/config"
)

const fetchTimeout = 10 * time.Second

var reTags = regexp.MustCompile(`<[^>]+>`)

// RSSFetcher fetches feeds over HTTP and parses them with gofeed. Malformed
// documents are reparsed with a lenient markup pass instead of failing the run.
type RSSFetcher struct {
	client  *http.Client
	headers config.Headers
	parser  *gofeed.Parser
}

// NewRSSFetcher creates a new RSS fetcher
func NewRSSFetcher(headers config.Headers) *RSSFetcher {
	return &RSSFetcher{
		client:  &http.Client{Timeout: fetchTimeout},
		headers: headers,
		parser:  gofeed.NewParser(),
	}
}

// FetchItems retrieves the feed at feedURL and returns up to limit usable
// items in document order. A feed that parses to zero usable items yields an
// empty slice and a nil error.
func (f *RSSFetcher) FetchItems(ctx context.Context, feedURL string, limit int) ([]FeedItem, error) {
	raw, err := f.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	items, err := f.parseStrict(raw)
	if err != nil {
		slog.Warn("strict feed parse failed, reparsing leniently", "url", feedURL, "error", err)
		items = parseLenient(raw)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *RSSFetcher) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed server returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (f *RSSFetcher) parseStrict(raw []byte) ([]FeedItem, error) {
	feed, err := f.parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		fi := FeedItem{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: stripTags(item.Description),
			Published:   strings.TrimSpace(item.Published),
		}
		if fi.Title == "" || fi.Link == "" {
			continue
		}
		items = append(items, fi)
	}
	return items, nil
}

// parseLenient recovers items from a malformed feed by locating item elements
// positionally with an HTML parser. No publish date is recovered in this mode.
func parseLenient(raw []byte) []FeedItem {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	var items []FeedItem
	doc.Find("item").Each(func(_ int, s *goquery.Selection) {
		fi := FeedItem{
			Title:       strings.TrimSpace(s.Find("title").First().Text()),
			Link:        lenientLink(s),
			Description: stripTags(s.Find("description").First().Text()),
		}
		if fi.Title == "" || fi.Link == "" {
			return
		}
		items = append(items, fi)
	})
	return items
}

// lenientLink pulls the item URL out of a leniently parsed document. HTML
// parsers treat <link> as a void element, so the URL text usually survives as
// the sibling node right after it rather than as its content.
func lenientLink(item *goquery.Selection) string {
	linkSel := item.Find("link").First()
	if link := strings.TrimSpace(linkSel.Text()); link != "" {
		return link
	}
	if len(linkSel.Nodes) == 0 {
		return ""
	}
	for n := linkSel.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type != html.TextNode {
			break
		}
		if link := strings.TrimSpace(n.Data); link != "" {
			return link
		}
	}
	return ""
}

func stripTags(s string) string {
	return strings.TrimSpace(reTags.ReplaceAllString(s, ""))
}

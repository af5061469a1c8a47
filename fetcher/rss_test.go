package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scipunch/feedvoice/config"
)

const wellFormedFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Example</title>
<link>http://example.com</link>
<description>Example feed</description>
<item>
<title> First </title>
<link>http://example.com/a</link>
<description>&lt;p&gt;Lead &lt;b&gt;paragraph&lt;/b&gt;&lt;/p&gt;</description>
<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
</item>
<item>
<title>Second</title>
<link>http://example.com/b</link>
<description>Plain text</description>
</item>
<item>
<title></title>
<link>http://example.com/c</link>
</item>
<item>
<title>Fourth</title>
<link></link>
</item>
<item>
<title>Fifth</title>
<link>http://example.com/e</link>
</item>
</channel>
</rss>`

// Mismatched closing tag and a bare ampersand, both common in real feeds.
const malformedFeed = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
<item>
<title>Broken &amp recovered title</title>
<link>http://example.com/broken</link>
<description>Recovered <b>description</b> text</description>
<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
</item>
</wrong>
</channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchItemsLimit(t *testing.T) {
	srv := serveFeed(t, wellFormedFeed)
	f := NewRSSFetcher(nil)

	cases := []struct {
		limit int
		want  int
	}{
		{limit: 2, want: 2},
		{limit: 3, want: 3},
		{limit: 10, want: 3}, // only 3 usable items in the document
	}
	for _, tc := range cases {
		items, err := f.FetchItems(context.Background(), srv.URL, tc.limit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != tc.want {
			t.Errorf("limit %d: expected %d items, got %d", tc.limit, tc.want, len(items))
		}
	}

	items, err := f.FetchItems(context.Background(), srv.URL, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].Title != "First" || items[1].Title != "Second" {
		t.Errorf("expected document order First, Second, got %q, %q", items[0].Title, items[1].Title)
	}
}

func TestFetchItemsDropsIncomplete(t *testing.T) {
	srv := serveFeed(t, wellFormedFeed)
	f := NewRSSFetcher(nil)

	items, err := f.FetchItems(context.Background(), srv.URL, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, item := range items {
		if item.Title == "" || item.Link == "" {
			t.Errorf("item with empty title or link survived: %+v", item)
		}
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 usable items, got %d", len(items))
	}
	if items[2].Title != "Fifth" {
		t.Errorf("expected Fifth as last usable item, got %q", items[2].Title)
	}
}

func TestFetchItemsCleansFields(t *testing.T) {
	srv := serveFeed(t, wellFormedFeed)
	f := NewRSSFetcher(nil)

	items, err := f.FetchItems(context.Background(), srv.URL, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].Title != "First" {
		t.Errorf("expected trimmed title, got %q", items[0].Title)
	}
	if items[0].Description != "Lead paragraph" {
		t.Errorf("expected tag-stripped description, got %q", items[0].Description)
	}
	if items[0].Published == "" {
		t.Error("expected publish date to be recovered")
	}
}

func TestFetchItemsMalformedFeed(t *testing.T) {
	srv := serveFeed(t, malformedFeed)
	f := NewRSSFetcher(nil)

	items, err := f.FetchItems(context.Background(), srv.URL, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected lenient parse to recover 1 item, got %d", len(items))
	}
	if items[0].Link != "http://example.com/broken" {
		t.Errorf("expected link recovered from void element, got %q", items[0].Link)
	}
	if items[0].Description != "Recovered description text" {
		t.Errorf("expected tag-stripped description, got %q", items[0].Description)
	}
	if items[0].Published != "" {
		t.Errorf("lenient parse must not recover a publish date, got %q", items[0].Published)
	}
}

func TestFetchItemsNotAFeed(t *testing.T) {
	srv := serveFeed(t, "this is not a feed at all")
	f := NewRSSFetcher(nil)

	items, err := f.FetchItems(context.Background(), srv.URL, 10)
	if err != nil {
		t.Fatalf("zero items must not be an error, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestFetchItemsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewRSSFetcher(nil)
	if _, err := f.FetchItems(context.Background(), srv.URL, 10); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestFetchItemsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewRSSFetcher(nil)
	if _, err := f.FetchItems(context.Background(), srv.URL, 10); err == nil {
		t.Fatal("expected error for unreachable feed server")
	}
}

func TestFetchItemsSendsHeaders(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(wellFormedFeed))
	}))
	defer srv.Close()

	f := NewRSSFetcher(config.Headers{"User-Agent": "feedvoice-test"})
	if _, err := f.FetchItems(context.Background(), srv.URL, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUA != "feedvoice-test" {
		t.Errorf("expected configured User-Agent, got %q", gotUA)
	}
}

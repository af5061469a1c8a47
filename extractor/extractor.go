package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/scipunch/feedvoice/config"
)

const (
	fetchTimeout = 15 * time.Second

	// minContentLength is how much text a strategy must yield before the
	// remaining fallbacks are skipped.
	minContentLength = 500
)

// ErrInsufficientContent means every extraction strategy came up empty.
var ErrInsufficientContent = errors.New("no usable article content")

var reWhitespace = regexp.MustCompile(`\s+`)

// ArticleExtractor recovers the readable body text of an article page.
type ArticleExtractor interface {
	Extract(ctx context.Context, pageURL, selectorHint string) (string, error)
}

// Extractor fetches article pages and runs a chain of extraction strategies
// over them, from the most targeted to the most permissive.
type Extractor struct {
	client  *http.Client
	headers config.Headers
}

func New(headers config.Headers) *Extractor {
	return &Extractor{
		client:  &http.Client{Timeout: fetchTimeout},
		headers: headers,
	}
}

// strategy is one way of locating body text in an already fetched document.
type strategy struct {
	name string
	run  func() string
}

// Extract returns the readable body text of the article at pageURL. Network,
// HTTP and parse failures surface as error returns, never as panics, so one
// bad article cannot take down a batch.
func (e *Extractor) Extract(ctx context.Context, pageURL, selectorHint string) (string, error) {
	raw, err := e.fetch(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse article page: %w", err)
	}

	// Drop page chrome once, before any strategy runs, so its text never
	// contaminates paragraph scraping.
	doc.Find("script, style, nav, header, footer, aside").Remove()

	strategies := []strategy{
		{"selector hint", func() string { return harvestHint(doc, selectorHint) }},
		{"article tag", func() string { return harvest(doc.Find("article").First()) }},
		{"filtered paragraphs", func() string { return filteredParagraphs(doc) }},
		{"readability", func() string { return readableText(raw, pageURL) }},
	}

	text, name := runChain(strategies, minContentLength)
	if text == "" {
		return "", ErrInsufficientContent
	}
	slog.Debug("article content extracted", "url", pageURL, "strategy", name, "length", len(text))
	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("article server returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// runChain evaluates strategies in order and returns the first normalized
// result of at least min characters. When no strategy reaches the threshold
// the longest result wins, which keeps short but genuine articles usable.
func runChain(strategies []strategy, min int) (text, name string) {
	for _, s := range strategies {
		candidate := normalizeWhitespace(s.run())
		if len(candidate) >= min {
			return candidate, s.name
		}
		if len(candidate) > len(text) {
			text, name = candidate, s.name
		}
	}
	return text, name
}

// harvestHint narrows extraction to the substructure matched by the caller's
// selector hint. An empty or unmatched hint yields nothing and the chain
// moves on.
func harvestHint(doc *goquery.Document, selectorHint string) string {
	if selectorHint == "" {
		return ""
	}
	return harvest(doc.Find(selectorHint).First())
}

// harvest concatenates the text of all paragraph and heading elements within
// sel, in document order, skipping elements whose trimmed text is empty.
func harvest(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var parts []string
	sel.Find("p, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// filteredParagraphs gathers every paragraph in the document and runs the
// sentence-level noise filter over the combined text.
func filteredParagraphs(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return filterSentences(strings.Join(parts, " "))
}

// readableText is the last resort: hand the raw document to readability and
// take whatever article body it scores out.
func readableText(raw, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(raw), u)
	if err != nil {
		return ""
	}
	return article.TextContent
}

func normalizeWhitespace(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

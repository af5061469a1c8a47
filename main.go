package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/scipunch/feedvoice/agent/ollama"
	"github.com/scipunch/feedvoice/config"
	"github.com/scipunch/feedvoice/extractor"
	"github.com/scipunch/feedvoice/fetcher"
	"github.com/scipunch/feedvoice/narrator"
	"github.com/scipunch/feedvoice/tts"
)

func main() {
	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var (
		cfgPath      string
		feedURL      string
		siteName     string
		selectorHint string
		maxArticles  int
	)
	flag.StringVar(&cfgPath, "config", config.DefaultPath(), "path to a TOML config")
	flag.StringVar(&feedURL, "feed", "", "RSS feed URL (required)")
	flag.StringVar(&siteName, "site", "", "site label for the intro and output files (derived from the feed URL if empty)")
	flag.StringVar(&selectorHint, "selector", "", "CSS selector for the main article content (optional)")
	flag.IntVar(&maxArticles, "max", 10, "number of articles to process")
	flag.Parse()

	if feedURL == "" {
		log.Fatal("-feed is required")
	}

	// Read config and create if default is missing
	conf, err := config.Read(cfgPath)
	if errors.Is(err, os.ErrNotExist) && cfgPath == config.DefaultPath() {
		if err := config.Write(cfgPath, conf); err != nil {
			log.Fatalf("failed to write default config with %s", err)
		}
	} else if err != nil {
		log.Fatalf("failed to read config with %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := narrator.New(
		fetcher.NewRSSFetcher(conf.Headers),
		extractor.New(conf.Headers),
		ollama.New(conf.Generation),
		tts.NewClient(conf.Synthesis),
		time.Duration(conf.PauseSeconds)*time.Second,
	)

	job := narrator.Job{
		FeedURL:      feedURL,
		SiteName:     siteLabel(feedURL, siteName),
		MaxArticles:  maxArticles,
		SelectorHint: selectorHint,
		OutputDir:    conf.OutputDirectory,
	}

	report, err := n.Run(ctx, job)
	switch {
	case errors.Is(err, narrator.ErrGeneratorUnavailable):
		log.Fatalf("generation service is not accessible at %s: %s", conf.Generation.Endpoint, err)
	case errors.Is(err, narrator.ErrNoItems):
		log.Fatalf("no articles found at %s", feedURL)
	case err != nil:
		log.Fatalf("run failed with %s", err)
	}

	slog.Info("run complete",
		"extracts", len(report.Records),
		"skipped", report.Skipped,
		"transcript", report.TranscriptPath,
		"audio", report.AudioPath)
	if report.Degraded {
		slog.Warn("run completed without audio")
	}
}

// siteLabel prefers the explicit override and otherwise derives a label from
// the feed's host name.
func siteLabel(feedURL, override string) string {
	if override != "" {
		return override
	}
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return "Feed"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	name, _, _ := strings.Cut(host, ".")
	if name == "" {
		return "Feed"
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Package narrator drives the whole run: feed items in, one transcript and
// one narrated audio file out. Items are processed strictly in feed order,
// one at a time, and a failing item is skipped rather than failing the batch.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scipunch/feedvoice/agent"
	"github.com/scipunch/feedvoice/extractor"
	"github.com/scipunch/feedvoice/fetcher"
	"github.com/scipunch/feedvoice/transcript"
	"github.com/scipunch/feedvoice/tts"
)

// Typical narration pace used for the duration estimate.
const wordsPerMinute = 150

var (
	// ErrGeneratorUnavailable aborts the run before any item is processed.
	ErrGeneratorUnavailable = errors.New("text-generation service is unreachable")
	// ErrNoItems means the feed produced nothing worth processing.
	ErrNoItems = errors.New("feed yielded no usable items")
)

// Job holds the per-run parameters handed down from the CLI layer.
type Job struct {
	FeedURL      string
	SiteName     string
	MaxArticles  int
	SelectorHint string
	OutputDir    string
}

// Report describes how a completed run went. Degraded is set when the run
// finished but the audio step was skipped or failed.
type Report struct {
	Records          []transcript.Record
	Skipped          int
	WordCount        int
	EstimatedMinutes float64
	TranscriptPath   string
	AudioPath        string
	Degraded         bool
}

// Narrator owns the sequential pipeline over feed items.
type Narrator struct {
	fetcher   fetcher.ItemFetcher
	extractor extractor.ArticleExtractor
	generator agent.Generator
	synth     tts.Synthesizer
	pause     time.Duration

	now func() time.Time
}

func New(f fetcher.ItemFetcher, e extractor.ArticleExtractor, g agent.Generator, s tts.Synthesizer, pause time.Duration) *Narrator {
	return &Narrator{
		fetcher:   f,
		extractor: e,
		generator: g,
		synth:     s,
		pause:     pause,
		now:       time.Now,
	}
}

// Run executes one batch. It returns an error only for fatal preconditions
// (generator unreachable, empty feed) or cancellation; everything else is
// reported through the Report, possibly as a degraded outcome.
func (n *Narrator) Run(ctx context.Context, job Job) (*Report, error) {
	if err := n.generator.Available(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}

	items, err := n.fetcher.FetchItems(ctx, job.FeedURL, job.MaxArticles)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	slog.Info("feed items fetched", "count", len(items), "url", job.FeedURL)

	report := &Report{}
	var fragments []string
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Info("processing article",
			"index", i+1, "total", len(items), "title", item.Title, "url", item.Link)

		content, err := n.extractor.Extract(ctx, item.Link, job.SelectorHint)
		if err != nil {
			// Extraction failure skips the item without charging the
			// inter-item pause, since the generator was never called.
			slog.Warn("content extraction failed, skipping item", "url", item.Link, "error", err)
			report.Skipped++
			continue
		}
		slog.Info("content extracted", "url", item.Link, "length", len(content))

		extract, err := n.generator.Generate(ctx, item.Title, content)
		if err != nil {
			slog.Warn("extract generation failed, skipping item", "url", item.Link, "error", err)
			report.Skipped++
		} else {
			report.Records = append(report.Records, transcript.Record{
				Title:     item.Title,
				URL:       item.Link,
				Published: item.Published,
				Extract:   extract,
			})
			fragments = append(fragments, fmt.Sprintf("Article %d: %s. %s", i+1, item.Title, extract))
		}

		if i < len(items)-1 {
			if err := n.sleep(ctx); err != nil {
				return nil, err
			}
		}
	}

	slog.Info("batch finished", "extracts", len(report.Records), "skipped", report.Skipped)
	if len(report.Records) == 0 {
		report.Degraded = true
		return report, nil
	}

	date := n.now().Format("2006-01-02")
	prefix, err := n.outputPrefix(job, date)
	if err != nil {
		return nil, err
	}

	report.TranscriptPath = prefix + ".txt"
	if err := transcript.Save(report.TranscriptPath, report.Records); err != nil {
		return nil, err
	}
	slog.Info("transcript written", "path", report.TranscriptPath)

	script := n.assembleScript(job.SiteName, date, fragments)
	report.WordCount = len(strings.Fields(script))
	report.EstimatedMinutes = float64(report.WordCount) / wordsPerMinute
	slog.Info("narration script assembled",
		"characters", len(script), "words", report.WordCount,
		"estimated_minutes", fmt.Sprintf("%.1f", report.EstimatedMinutes))

	audioPath := prefix + ".wav"
	if err := n.synth.Synthesize(ctx, script, audioPath); err != nil {
		// The transcript survives a synthesis failure; the run is degraded,
		// not failed.
		slog.Error("audio synthesis failed", "error", err)
		report.Degraded = true
		return report, nil
	}
	report.AudioPath = audioPath
	slog.Info("audio generated", "path", audioPath)

	return report, nil
}

// assembleScript folds the per-article fragments into the single text blob
// submitted for synthesis.
func (n *Narrator) assembleScript(siteName, date string, fragments []string) string {
	intro := fmt.Sprintf(
		"Welcome to %s comprehensive extracts. Here are %d recent articles from %s, generated on %s. ",
		siteName, len(fragments), siteName, date)
	return intro + strings.Join(fragments, " ")
}

func (n *Narrator) outputPrefix(job Job, date string) (string, error) {
	if err := os.MkdirAll(job.OutputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory at '%s' with %w", job.OutputDir, err)
	}
	name := fmt.Sprintf("%s_extracts_%s", strings.ToLower(job.SiteName), date)
	return filepath.Join(job.OutputDir, name), nil
}

// sleep pauses between items to stay inside the generation service's rate
// tolerance, waking early on cancellation.
func (n *Narrator) sleep(ctx context.Context) error {
	if n.pause <= 0 {
		return nil
	}
	timer := time.NewTimer(n.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

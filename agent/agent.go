package agent

import "context"

// Generator produces a narration-ready extract for a single article.
type Generator interface {
	// Generate returns the spoken-word extract for one article.
	Generate(ctx context.Context, title, article string) (string, error)

	// Available reports whether the generation service is reachable. A batch
	// must not start while it returns an error.
	Available(ctx context.Context) error
}

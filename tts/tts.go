// Package tts is the boundary to the speech-synthesis service. The service is
// treated as opaque: it accepts a script plus voice parameters and either
// produces one playable audio file or fails as a whole.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/scipunch/feedvoice/config"
)

// Rendering a full narration script is slow, comparable to generation.
const synthesizeTimeout = 10 * time.Minute

// Synthesizer renders a narration script into a single audio file at outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, script, outPath string) error
}

// Client posts scripts to an HTTP speech-synthesis endpoint and stores the
// returned audio.
type Client struct {
	cfg    config.Synthesis
	client *http.Client
}

func NewClient(cfg config.Synthesis) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: synthesizeTimeout},
	}
}

type synthesizeRequest struct {
	Input      string  `json:"input"`
	Model      string  `json:"model"`
	Voice      string  `json:"voice"`
	Speed      float64 `json:"speed"`
	LangCode   string  `json:"lang_code"`
	SampleRate int     `json:"sample_rate"`
	Format     string  `json:"format"`
}

// Synthesize renders script and writes the audio to outPath. The file appears
// only on success: the response streams into a temporary file that is renamed
// into place once fully written.
func (c *Client) Synthesize(ctx context.Context, script, outPath string) error {
	payload, err := json.Marshal(synthesizeRequest{
		Input:      script,
		Model:      c.cfg.Model,
		Voice:      c.cfg.Voice,
		Speed:      c.cfg.Speed,
		LangCode:   c.cfg.LangCode,
		SampleRate: c.cfg.SampleRate,
		Format:     "wav",
	})
	if err != nil {
		return fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("synthesis service returned status %d", resp.StatusCode)
	}

	// Same directory as the target so the final rename stays atomic.
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".feedvoice-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temporary audio file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to store audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("failed to move audio into place: %w", err)
	}
	return nil
}

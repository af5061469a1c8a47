// Package ollama talks to an Ollama-compatible text-generation endpoint.
package ollama

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/scipunch/feedvoice/config"
)

//go:embed narration.prompt
var promptText string

var prompt = template.Must(template.New("narration").Parse(promptText))

// Generation can take minutes on large local models, so the request timeout
// is far above the usual HTTP defaults.
const generateTimeout = 90 * time.Second

// Options are the decoding parameters sent with every generation request.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

// Client generates narration extracts through the Ollama HTTP API.
type Client struct {
	endpoint string
	model    string
	options  Options
	client   *http.Client
}

// New creates a client for the configured generation service.
func New(cfg config.Generation) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		options: Options{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			NumPredict:  cfg.MaxTokens,
		},
		client: &http.Client{Timeout: generateTimeout},
	}
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate renders the narration prompt for the article and submits it as a
// single non-streaming completion.
func (c *Client) Generate(ctx context.Context, title, article string) (string, error) {
	var sb strings.Builder
	err := prompt.Execute(&sb, map[string]string{"Title": title, "Content": article})
	if err != nil {
		return "", fmt.Errorf("failed to render narration prompt: %w", err)
	}

	payload, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  sb.String(),
		Stream:  false,
		Options: c.options,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	extract := strings.TrimSpace(result.Response)
	if extract == "" {
		return "", fmt.Errorf("generation service returned an empty extract")
	}
	return extract, nil
}

// Available probes the service's model listing endpoint.
func (c *Client) Available(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}
	return nil
}

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/i474232898/eagle-eye/internal/common"
	"github.com/i474232898/eagle-eye/internal/resilient"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"

	factsTemperature      = 0.7
	structuredTemperature = 0.2
)

// Config identifies the generative-language endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client talks to the Gemini generateContent endpoint. Every failure is
// reported as a false ok so callers can fall back.
type Client struct {
	cfg    Config
	client *resilient.Client
	logger *slog.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:    cfg,
		client: resilient.New("gemini", httpClient, resilient.DefaultBackoff, 60*time.Second),
		logger: logger.With("component", "oracle"),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type googleSearch struct{}

type tool struct {
	GoogleSearch *googleSearch `json:"google_search,omitempty"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	Tools            []tool           `json:"tools,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// AskForFacts requests a web-search-augmented free-text completion.
func (c *Client) AskForFacts(ctx context.Context, prompt string) (string, bool) {
	return c.generate(ctx, "facts", generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		Tools:            []tool{{GoogleSearch: &googleSearch{}}},
		GenerationConfig: generationConfig{Temperature: factsTemperature},
	})
}

// AskForStructured requests a JSON-only completion at low temperature.
func (c *Client) AskForStructured(ctx context.Context, prompt string) (string, bool) {
	return c.generate(ctx, "structured", generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      structuredTemperature,
			ResponseMimeType: "application/json",
		},
	})
}

func (c *Client) generate(ctx context.Context, mode string, body generateRequest) (string, bool) {
	if c.cfg.APIKey == "" {
		c.logger.Error("api key not configured", "mode", mode)
		return "", false
	}

	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.Error("failed to encode request", "mode", mode, "err", err)
		return "", false
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	start := time.Now()
	raw, err := c.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)
		return req, nil
	})
	if err != nil {
		c.logger.Warn("oracle unavailable", "mode", mode, "err", err)
		return "", false
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn("malformed oracle response", "mode", mode, "err", err, "body", common.Truncate(string(raw), 200))
		return "", false
	}

	text := responseText(resp)
	if text == "" {
		c.logger.Warn("oracle returned no text", "mode", mode)
		return "", false
	}

	c.logger.Debug("oracle call completed", "mode", mode, "duration", time.Since(start), "chars", len(text))
	return text, true
}

// responseText joins the parts of the first candidate.
func responseText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

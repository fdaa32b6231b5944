// Package gemini is the generative-language collaborator: one synchronous
// generateContent call per prompt with typed failures.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ISMendys/alexa-gemini/internal/config"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Generator answers a prompt with generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Sampling parameters sent with every request.
const (
	Temperature     = 0.7
	TopK            = 40
	TopP            = 0.95
	MaxOutputTokens = 1024
)

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type candidate struct {
	Content      *content `json:"content"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// Client calls the generateContent endpoint.
type Client struct {
	client *resty.Client
	apiKey string
	model  string
}

var _ Generator = (*Client)(nil)

// NewClient creates a client from cfg. A missing API key is not an error
// here; every call then fails with ErrUpstreamNotConfigured.
func NewClient(cfg config.UpstreamConfig) *Client {
	if cfg.GetGeminiAPIKey() == "" {
		log.Warn().Msg("GEMINI_API_KEY not set; generative answers are disabled")
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.GetGeminiBaseURL(), "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.GetUpstreamTimeout())

	return &Client{client: c, apiKey: cfg.GetGeminiAPIKey(), model: cfg.GetGeminiModel()}
}

// Generate sends prompt and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateWithContext(ctx, prompt, "")
}

// GenerateWithContext prefixes prompt with background context when given.
func (c *Client) GenerateWithContext(ctx context.Context, prompt, background string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.ErrUpstreamNotConfigured
	}

	full := prompt
	if background != "" {
		full = fmt.Sprintf("Contexto: %s\n\nPergunta: %s", background, prompt)
	}
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: full}}}},
		GenerationConfig: generationConfig{
			Temperature:     Temperature,
			TopK:            TopK,
			TopP:            TopP,
			MaxOutputTokens: MaxOutputTokens,
		},
	}

	log.Info().Str("prompt", preview(prompt)).Msg("sending prompt to gemini")
	started := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(&body).
		Post("/models/" + c.model + ":generateContent")
	if err != nil {
		if isTimeout(err) {
			log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("gemini request timed out")
			return "", fmt.Errorf("%w: %w", apperrors.ErrUpstreamTimeout, err)
		}
		log.Error().Err(err).Msg("gemini request failed")
		return "", fmt.Errorf("%w: %w", apperrors.ErrUpstreamTransport, err)
	}
	if resp.StatusCode() != http.StatusOK {
		log.Error().Int("status", resp.StatusCode()).Str("body", preview(resp.String())).Msg("gemini returned an error status")
		return "", fmt.Errorf("%w: gemini status %d", apperrors.ErrUpstreamTransport, resp.StatusCode())
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", apperrors.ErrUpstreamMalformedResponse, err)
	}
	if len(gr.Candidates) == 0 || gr.Candidates[0].Content == nil || len(gr.Candidates[0].Content.Parts) == 0 {
		log.Error().Str("body", preview(resp.String())).Msg("unexpected gemini response format")
		return "", fmt.Errorf("%w: no candidate text", apperrors.ErrUpstreamMalformedResponse)
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	log.Info().
		Str("answer", preview(text)).
		Dur("elapsed", time.Since(started)).
		Msg("gemini answer received")
	return text, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// preview shortens s for logging.
func preview(s string) string {
	const limit = 100
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

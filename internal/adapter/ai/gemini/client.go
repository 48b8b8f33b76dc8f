// Package gemini implements the text-generation port against the Google
// Generative Language REST API.
package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// defaultSafetyThreshold applies to every harm category unless the request
// overrides it.
const defaultSafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// Client calls the generateContent endpoint. Transient failures (429, 5xx,
// transport errors) are retried with bounded exponential backoff; client
// errors are permanent.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a Client with a bounded per-call timeout.
func New(cfg config.Config) *Client {
	return &Client{cfg: cfg, hc: &http.Client{Timeout: cfg.AITimeout}}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// Generate implements domain.AIClient.
func (c *Client) Generate(ctx domain.Context, req domain.GenerationRequest) (string, error) {
	if c.cfg.GeminiAPIKey == "" {
		slog.Error("Gemini API key missing", slog.String("provider", "gemini"))
		return "", fmt.Errorf("%w: GEMINI_API_KEY missing", domain.ErrUpstreamUnavailable)
	}

	threshold := req.SafetyThreshold
	if threshold == "" {
		threshold = defaultSafetyThreshold
	}
	settings := make([]safetySetting, 0, len(harmCategories))
	for _, cat := range harmCategories {
		settings = append(settings, safetySetting{Category: cat, Threshold: threshold})
	}
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
		SafetySettings: settings,
	})
	if err != nil {
		return "", fmt.Errorf("op=gemini.Generate marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.GeminiBaseURL, c.cfg.GeminiModel)

	var out generateResponse
	op := func() error {
		start := time.Now()
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("x-goog-api-key", c.cfg.GeminiAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("gemini", "generate").Inc()
		observability.AIRequestDuration.WithLabelValues("gemini", "generate").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("ai provider rate limited", slog.String("provider", "gemini"), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("rate limited: 429")
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			snippet := string(respBody)
			if len(snippet) > 512 {
				snippet = snippet[:512]
			}
			slog.Warn("ai provider 4xx", slog.String("provider", "gemini"), slog.Int("status", resp.StatusCode), slog.String("body", snippet))
			return backoff.Permanent(fmt.Errorf("generateContent status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			slog.Error("ai provider non-2xx", slog.String("provider", "gemini"), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("generateContent status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(respBody, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.backoffConfig(), ctx)); err != nil {
		return "", fmt.Errorf("%w: gemini api failed: %v", domain.ErrUpstreamUnavailable, err)
	}

	if out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", domain.ErrUpstreamUnavailable, out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates from gemini", domain.ErrUpstreamUnavailable)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

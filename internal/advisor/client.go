// Package advisor builds financial prompts and sends them to the Gemini
// API. The client handle lives here and only here; it is never stored
// alongside persisted financial data.
package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"finsight/internal/cache"
	"finsight/internal/log"
)

// ErrNotConfigured is returned when no API key was provided. Callers
// surface it as a displayable message, not a server failure.
var ErrNotConfigured = errors.New("text generation is not configured")

// Generator produces advisory text for a prompt. Satisfied by Client
// and by test fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client wraps the Gemini API with a fixed generation configuration and
// memoizes responses per prompt fingerprint.
type Client struct {
	genai  *genai.Client
	model  string
	logger *log.Logger
	cache  *cache.LRUCache[string]
}

// NewClient connects to the Gemini API. The context only scopes client
// construction, not later calls.
func NewClient(ctx context.Context, apiKey, model string, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		genai:  client,
		model:  model,
		logger: logger.WithComponent(log.ComponentAdvisor),
		cache:  cache.NewLRUCache[string](128, 10*time.Minute),
	}, nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.7),
		TopP:             genai.Ptr[float32](0.9),
		TopK:             genai.Ptr[float32](40),
		MaxOutputTokens:  500,
		ResponseMIMEType: "text/plain",
	}
}

// Generate sends the prompt and returns the response text. The context
// comes from the HTTP request, so a client that navigated away cancels
// the in-flight call and the stale response is discarded with it.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	key := fingerprint(prompt)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.DebugContext(ctx, "serving cached response", log.FieldModel, c.model)
		return cached, nil
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), generationConfig())
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("model returned an empty response")
	}

	c.logger.InfoContext(ctx, "generated advisory text",
		log.FieldModel, c.model,
		log.FieldDuration, time.Since(start).Milliseconds())

	c.cache.Set(key, text)
	return text, nil
}

// ResponseCache exposes the memoization cache for periodic cleanup.
func (c *Client) ResponseCache() cache.Cleaner {
	return c.cache
}

func fingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

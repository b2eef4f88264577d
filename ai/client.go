// Package ai provides the prompt composer and the summarization client. The
// client speaks the OpenAI-compatible chat-completion protocol through
// go-openai; every listed provider exposes that protocol.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// Fixed sampling parameters for summary generation.
	defaultMaxTokens   = 500
	defaultTemperature = 0.7

	defaultTimeoutSeconds = 120
)

// Summarizer turns a composed prompt into displayable text. The returned
// string is always safe to show: call failures are rendered into it, never
// raised.
type Summarizer interface {
	Summarize(ctx context.Context, prompt *Prompt) string
}

// Config represents summarization client configuration.
type Config struct {
	Provider    string // openai, deepseek, zai, siliconflow, openrouter, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 500
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 120)
}

// Client is the summarization client. It makes a single best-effort call per
// request: no retry, no backoff, no circuit breaking.
type Client struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int
}

// NewClient creates a summarization client.
func NewClient(cfg *Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}
}

// newHTTPClient builds the shared transport for LLM calls. Connection reuse
// matters more than compression for chat-completion payloads.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// Summarize sends the composed prompt and returns the generated text. On any
// failure (network, auth, quota) it returns a human-readable error string;
// callers must treat the result as displayable, never as a control-flow
// signal.
func (c *Client) Summarize(ctx context.Context, prompt *Prompt) string {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.timeout)*time.Second)
	defer cancel()

	slog.Debug("ai: summarize request",
		"model", c.model,
		"sections", len(prompt.Sections),
		"max_tokens", c.maxTokens,
	)
	startTime := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt()},
		},
	})
	if err != nil {
		slog.Error("ai: summarize request failed", "model", c.model, "error", err)
		return fmt.Sprintf("Error generating summary: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		slog.Warn("ai: empty response from model", "model", c.model)
		return "No summary generated."
	}

	slog.Debug("ai: summarize response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	return resp.Choices[0].Message.Content
}

// Package llm talks to an OpenAI-compatible model service for chat
// completions and audio transcription.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config holds connection settings for the model service.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	TimeoutSeconds     int
}

const (
	defaultBaseURL            = "https://api.openai.com/v1"
	defaultModel              = "gpt-4o"
	defaultTranscriptionModel = "whisper-1"
	defaultTimeout            = 120 * time.Second
	defaultRetryMaxAttempts   = 3
	defaultRetryBaseDelay     = 500 * time.Millisecond
	defaultRetryMaxDelay      = 8 * time.Second
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client whose transport is wrapped with retries.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.base = client
		}
	}
}

// WithRetryMaxAttempts sets total attempts per request, including the first.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retry.maxAttempts = attempts
		}
	}
}

// WithRetryBackoff sets the base and maximum delay between retries.
func WithRetryBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		if base >= 0 {
			c.retry.baseDelay = base
		}
		if max >= 0 {
			c.retry.maxDelay = max
		}
	}
}

// WithSleeper replaces the retry sleep, mainly for tests.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.retry.sleeper = sleeper
		}
	}
}

// Client is safe for concurrent use.
type Client struct {
	cfg        Config
	base       *http.Client
	retry      *retryTransport
	httpClient *http.Client
	chat       llms.Model
}

// NewClient builds a client. An empty API key yields a client whose calls
// fail with ErrNotConfigured.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.TranscriptionModel) == "" {
		cfg.TranscriptionModel = defaultTranscriptionModel
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	c := &Client{
		cfg: cfg,
		retry: &retryTransport{
			maxAttempts: defaultRetryMaxAttempts,
			baseDelay:   defaultRetryBaseDelay,
			maxDelay:    defaultRetryMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c.retry.base = http.DefaultTransport
	if c.base != nil {
		if c.base.Transport != nil {
			c.retry.base = c.base.Transport
		}
		if c.base.Timeout > 0 {
			timeout = c.base.Timeout
		}
	}
	c.httpClient = &http.Client{Timeout: timeout, Transport: c.retry}

	if cfg.APIKey == "" {
		return c, nil
	}

	chat, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}
	c.chat = chat
	return c, nil
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// CompleteJSON sends a system and user prompt in JSON mode at temperature 0
// and returns the raw content of the first choice.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	const op = "chat completion"
	if strings.TrimSpace(systemPrompt) == "" || strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("system and user prompts are required")
	}
	if c.chat == nil {
		return "", &UpstreamError{Op: op, Err: ErrNotConfigured}
	}

	resp, err := c.chat.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}, llms.WithJSONMode(), llms.WithTemperature(0))
	if err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &UpstreamError{Op: op, Err: errors.New("response contained no choices")}
	}

	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Content)
	if content == "" {
		return "", &UpstreamError{Op: op, Err: fmt.Errorf("empty content (stop_reason=%q)", choice.StopReason)}
	}
	return content, nil
}

package chat

import (
	"log/slog"
	"time"
)

// Config holds provider configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.groq.com/openai/v1".
	// A URL already ending in /chat/completions is used as is.
	BaseURL string
	APIKey  string // optional for local servers

	Model       string
	MaxTokens   int // 0 leaves the limit to the server
	Temperature float64

	// Timeout bounds non-streamed calls. Streams are bounded by their
	// context; HeaderTimeout caps the wait for the first byte.
	Timeout       time.Duration
	HeaderTimeout time.Duration

	// Retries apply to the initial request only, never mid-stream.
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
// Examples: "https://api.openai.com/v1", "http://localhost:11434/v1"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithTimeout sets the non-streaming request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHeaderTimeout sets how long a stream may wait for response headers.
func WithHeaderTimeout(d time.Duration) Option {
	return func(c *Config) { c.HeaderTimeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig targets Groq's OpenAI-compatible endpoint with a small
// Llama model, which keeps replies fast enough for voice.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://api.groq.com/openai/v1",
		Model:         "llama3-8b-8192",
		Temperature:   0.5,
		Timeout:       30 * time.Second,
		HeaderTimeout: 30 * time.Second,
		MaxRetries:    2,
		RetryDelay:    250 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

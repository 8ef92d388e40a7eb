package stt

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds transcription settings shared by all backends.
type Config struct {
	APIKey  string
	BaseURL string

	// AccessToken is an OAuth2 bearer token for Google. Without it (and
	// without an API key) Google uses Application Default Credentials.
	AccessToken string

	Language string

	// FinalOnly drops partial chunks from Wit streams.
	FinalOnly bool

	// HeaderTimeout bounds the wait for the first response byte.
	HeaderTimeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option configures a provider.
type Option func(*Config)

// WithAPIKey sets the bearer token (Wit) or API key (Google).
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithAccessToken sets a static OAuth2 token for Google.
func WithAccessToken(token string) Option {
	return func(c *Config) { c.AccessToken = token }
}

// WithBaseURL overrides the service endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithLanguage sets the recognition language, e.g. "en-US".
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithFinalOnly controls whether partial chunks are emitted.
func WithFinalOnly(v bool) Option {
	return func(c *Config) { c.FinalOnly = v }
}

// WithHeaderTimeout sets the response header timeout.
func WithHeaderTimeout(d time.Duration) Option {
	return func(c *Config) { c.HeaderTimeout = d }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for Wit.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://api.wit.ai",
		Language:      "en-US",
		FinalOnly:     true,
		HeaderTimeout: 30 * time.Second,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

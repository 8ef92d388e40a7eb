// Package ducky assembles the push-to-talk companion: configuration,
// backend selection, and the application lifecycle.
package ducky

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teslashibe/go-ducky/internal/config"
	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/voice"
)

// Backend names accepted by Config.
var (
	STTBackends   = []string{"wit", "google", "mock"}
	ChatBackends  = []string{"openai", "gemini", "mock"}
	TTSBackends   = []string{"openai", "elevenlabs", "elevenlabs-ws", "google", "mock"}
	AudioBackends = []audioio.Backend{
		audioio.BackendAuto, audioio.BackendALSA, audioio.BackendCoreAudio,
		audioio.BackendRemote, audioio.BackendMock,
	}
)

// Keys holds provider credentials. They normally come from the environment.
type Keys struct {
	Wit               string `yaml:"wit"`
	LLM               string `yaml:"llm"`
	OpenAI            string `yaml:"openai"`
	ElevenLabs        string `yaml:"elevenlabs"`
	Google            string `yaml:"google"`
	GoogleAccessToken string `yaml:"google_access_token"`
}

// Config holds all configuration for the ducky application.
// Flag parsing is done in cmd/ducky; this struct is data only.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Backends. Chat and TTS accept a comma-separated list that is tried
	// in order, e.g. "elevenlabs-ws,openai".
	STT   string         `yaml:"stt"`
	Chat  string         `yaml:"chat"`
	TTS   string         `yaml:"tts"`
	Audio audioio.Config `yaml:"audio"`

	Language         string        `yaml:"language"`
	LLMEndpoint      string        `yaml:"llm_endpoint"`
	LLMModel         string        `yaml:"llm_model"`
	Temperature      float64       `yaml:"temperature"`
	MaxTokens        int           `yaml:"max_tokens"`
	SystemPrompt     string        `yaml:"system_prompt"`
	Voice            string        `yaml:"voice"`
	SpeechRate       float64       `yaml:"speech_rate"`
	MaxRecord        time.Duration `yaml:"max_record"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"`

	// WebAddr serves the dashboard and control channel. Empty disables it.
	WebAddr   string `yaml:"web_addr"`
	StaticDir string `yaml:"static_dir"`
	AccessLog bool   `yaml:"access_log"`

	// Keyboard enables push-to-talk on stdin.
	Keyboard bool `yaml:"keyboard"`

	// Journal is the conversation file. Empty keeps history in memory.
	Journal string `yaml:"journal"`

	// Tick is the executor drain interval.
	Tick time.Duration `yaml:"tick"`

	Keys Keys `yaml:"keys"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	v := voice.DefaultConfig()
	return Config{
		LogLevel:         "info",
		STT:              "wit",
		Chat:             "openai",
		TTS:              "openai",
		Audio:            audioio.DefaultConfig(),
		Language:         v.Language,
		LLMEndpoint:      "https://api.groq.com/openai/v1",
		LLMModel:         v.Model,
		Temperature:      v.Temperature,
		MaxTokens:        v.MaxTokens,
		SystemPrompt:     v.SystemPrompt,
		SpeechRate:       v.SpeechRate,
		MaxRecord:        v.MaxRecord,
		SynthesisTimeout: v.SynthesisTimeout,
		WebAddr:          ":8181",
		Keyboard:         true,
		Tick:             16 * time.Millisecond,
	}
}

// LoadConfig builds a config from defaults, the YAML file at path (if
// any), then the environment. Flags are applied by the caller.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := config.LoadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	cfg.LoadEnv()
	return cfg, nil
}

// LoadEnv applies environment overrides.
func (c *Config) LoadEnv() {
	c.LogLevel = config.String("DUCKY_LOG_LEVEL", c.LogLevel)
	c.STT = config.String("DUCKY_STT", c.STT)
	c.Chat = config.String("DUCKY_CHAT", c.Chat)
	c.TTS = config.String("DUCKY_TTS", c.TTS)
	c.Audio.Backend = audioio.Backend(config.String("DUCKY_AUDIO", string(c.Audio.Backend)))
	c.Audio.Device = config.String("DUCKY_AUDIO_DEVICE", c.Audio.Device)
	c.Language = config.String("DUCKY_LANGUAGE", c.Language)
	c.Temperature = config.Float("DUCKY_TEMPERATURE", c.Temperature)
	c.MaxTokens = config.Int("DUCKY_MAX_TOKENS", c.MaxTokens)
	c.SpeechRate = config.Float("DUCKY_SPEECH_RATE", c.SpeechRate)
	c.MaxRecord = config.Duration("DUCKY_MAX_RECORD", c.MaxRecord)
	c.SynthesisTimeout = config.Duration("DUCKY_SYNTHESIS_TIMEOUT", c.SynthesisTimeout)
	c.WebAddr = config.String("DUCKY_WEB_ADDR", c.WebAddr)
	c.Keyboard = config.Bool("DUCKY_KEYBOARD", c.Keyboard)
	c.Journal = config.String("DUCKY_JOURNAL", c.Journal)

	c.LLMEndpoint = config.String("LLM_API_ENDPOINT", c.LLMEndpoint)
	c.LLMModel = config.String("LLM_MODEL", c.LLMModel)
	if tts := c.TTSChain(); len(tts) > 0 && strings.HasPrefix(tts[0], "elevenlabs") {
		c.Voice = config.String("ELEVENLABS_VOICE_ID", c.Voice)
	}
	c.Voice = config.String("DUCKY_VOICE", c.Voice)

	c.Keys.Wit = config.String("WIT_CLIENT_TOKEN", c.Keys.Wit)
	c.Keys.LLM = config.String("LLM_API_KEY", c.Keys.LLM)
	c.Keys.OpenAI = config.String("OPENAI_API_KEY", c.Keys.OpenAI)
	c.Keys.ElevenLabs = config.String("ELEVENLABS_API_KEY", c.Keys.ElevenLabs)
	c.Keys.Google = config.FirstString(c.Keys.Google, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	c.Keys.GoogleAccessToken = config.String("GOOGLE_ACCESS_TOKEN", c.Keys.GoogleAccessToken)
}

// Validate checks that backends are known and have credentials.
func (c *Config) Validate() error {
	if !slices.Contains(STTBackends, c.STT) {
		return &ConfigError{Field: "STT", Message: fmt.Sprintf("unknown stt backend %q (want one of %s)", c.STT, strings.Join(STTBackends, ", "))}
	}
	if c.STT == "wit" && c.Keys.Wit == "" {
		return &ConfigError{Field: "Keys.Wit", Message: "WIT_CLIENT_TOKEN environment variable is required for Wit transcription"}
	}

	for _, name := range c.ChatChain() {
		if !slices.Contains(ChatBackends, name) {
			return &ConfigError{Field: "Chat", Message: fmt.Sprintf("unknown chat backend %q (want one of %s)", name, strings.Join(ChatBackends, ", "))}
		}
		if name == "gemini" && c.Keys.LLM == "" && c.Keys.Google == "" {
			return &ConfigError{Field: "Keys.LLM", Message: "LLM_API_KEY or GOOGLE_API_KEY is required for Gemini"}
		}
		if name == "openai" && c.LLMEndpoint == "" {
			return &ConfigError{Field: "LLMEndpoint", Message: "LLM_API_ENDPOINT is required"}
		}
	}
	if len(c.ChatChain()) == 0 {
		return &ConfigError{Field: "Chat", Message: "a chat backend is required"}
	}

	for _, name := range c.TTSChain() {
		if !slices.Contains(TTSBackends, name) {
			return &ConfigError{Field: "TTS", Message: fmt.Sprintf("unknown tts backend %q (want one of %s)", name, strings.Join(TTSBackends, ", "))}
		}
		switch name {
		case "openai":
			if c.Keys.OpenAI == "" {
				return &ConfigError{Field: "Keys.OpenAI", Message: "OPENAI_API_KEY environment variable is required for OpenAI TTS"}
			}
		case "elevenlabs", "elevenlabs-ws":
			if c.Keys.ElevenLabs == "" {
				return &ConfigError{Field: "Keys.ElevenLabs", Message: "ELEVENLABS_API_KEY environment variable is required for ElevenLabs TTS"}
			}
		}
	}
	if len(c.TTSChain()) == 0 {
		return &ConfigError{Field: "TTS", Message: "a tts backend is required"}
	}

	if !slices.Contains(AudioBackends, c.Audio.Backend) {
		return &ConfigError{Field: "Audio.Backend", Message: fmt.Sprintf("unknown audio backend %q", c.Audio.Backend)}
	}
	if err := c.Audio.Validate(); err != nil {
		return &ConfigError{Field: "Audio", Message: err.Error()}
	}
	if c.Audio.Backend == audioio.BackendRemote && c.WebAddr == "" {
		return &ConfigError{Field: "WebAddr", Message: "the remote audio backend needs the web server (web_addr)"}
	}
	if c.Tick <= 0 {
		return &ConfigError{Field: "Tick", Message: "tick must be positive"}
	}
	vc := c.VoiceConfig()
	if err := vc.Validate(); err != nil {
		return &ConfigError{Field: "Voice", Message: err.Error()}
	}
	return nil
}

// ChatChain returns the chat backends in fallback order.
func (c *Config) ChatChain() []string {
	return splitList(c.Chat)
}

// TTSChain returns the TTS backends in fallback order.
func (c *Config) TTSChain() []string {
	return splitList(c.TTS)
}

// VoiceConfig returns the session settings derived from c. Model is left
// empty so each chat backend in a chain uses its own model.
func (c *Config) VoiceConfig() voice.Config {
	return voice.Config{
		SystemPrompt:     c.SystemPrompt,
		Temperature:      c.Temperature,
		MaxTokens:        c.MaxTokens,
		SampleRate:       c.Audio.SampleRate,
		MaxRecord:        c.MaxRecord,
		Language:         c.Language,
		SynthesisTimeout: c.SynthesisTimeout,
		SpeechRate:       c.SpeechRate,
		Voice:            c.Voice,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

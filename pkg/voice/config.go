package voice

import (
	"errors"
	"time"
)

// DefaultSystemPrompt sets the companion's persona.
const DefaultSystemPrompt = "You are 'Dev's Rubber Ducky,' a calm, curious coding teacher and companion. " +
	"Keep replies short and sweet and be sure to answer the question directly, in addition, " +
	"keep replies under 100 tokens unless asked to expand."

// Config holds all tunable parameters for the voice pipeline.
// Parameters are organized by stage.
type Config struct {
	// Chat settings
	SystemPrompt string
	Model        string  // Chat model name
	Temperature  float64 // Response randomness 0.0-2.0 (default: 0.5)
	MaxTokens    int     // 0 leaves the limit to the backend

	// Capture settings
	SampleRate int           // Capture sample rate (default: 16000)
	MaxRecord  time.Duration // Longest utterance kept (default: 15s)

	// Transcription settings
	Language string // BCP-47 language (default: "en-US")

	// Synthesis settings
	SynthesisTimeout time.Duration // Upper bound for one reply (default: 10s)
	SpeechRate       float64       // Speaking speed multiplier (default: 1.0)
	Voice            string        // Provider-specific voice ID or preset
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		SystemPrompt: DefaultSystemPrompt,
		Model:        "llama3-8b-8192",
		Temperature:  0.5,

		SampleRate: 16000,
		MaxRecord:  15 * time.Second,

		Language: "en-US",

		SynthesisTimeout: 10 * time.Second,
		SpeechRate:       1.0,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("voice: temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return errors.New("voice: max tokens must not be negative")
	}
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return errors.New("voice: sample rate must be between 8000 and 48000")
	}
	if c.MaxRecord <= 0 {
		return errors.New("voice: max record duration must be positive")
	}
	if c.SynthesisTimeout <= 0 {
		return errors.New("voice: synthesis timeout must be positive")
	}
	if c.SpeechRate < 0.25 || c.SpeechRate > 4 {
		return errors.New("voice: speech rate must be between 0.25 and 4")
	}
	return nil
}

// WithSystemPrompt returns a copy with the system prompt set.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithModel returns a copy with the chat model set.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithVoice returns a copy with the voice and speech rate set.
func (c Config) WithVoice(voice string, rate float64) Config {
	c.Voice = voice
	c.SpeechRate = rate
	return c
}

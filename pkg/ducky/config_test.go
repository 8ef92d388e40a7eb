package ducky

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-ducky/pkg/audioio"
)

func mockConfig() Config {
	cfg := DefaultConfig()
	cfg.STT, cfg.Chat, cfg.TTS = "mock", "mock", "mock"
	cfg.Audio.Backend = audioio.BackendMock
	cfg.WebAddr = ""
	cfg.Keyboard = false
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.STT != "wit" || cfg.Chat != "openai" || cfg.TTS != "openai" {
		t.Errorf("backends = %s/%s/%s", cfg.STT, cfg.Chat, cfg.TTS)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.MaxRecord != 15*time.Second {
		t.Errorf("MaxRecord = %v, want 15s", cfg.MaxRecord)
	}
	if cfg.SystemPrompt == "" {
		t.Error("SystemPrompt should default to the ducky persona")
	}
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ducky.yaml")
	yaml := `
stt: google
chat: gemini
tts: elevenlabs-ws,openai
language: fr-FR
max_record: 5s
audio:
  backend: mock
  sample_rate: 24000
keys:
  google: yaml-google
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DUCKY_LANGUAGE", "de-DE")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-123")
	t.Setenv("ELEVENLABS_API_KEY", "el-key")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DUCKY_VOICE", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"stt from yaml", cfg.STT, "google"},
		{"chat from yaml", cfg.Chat, "gemini"},
		{"env beats yaml", cfg.Language, "de-DE"},
		{"duration from yaml", cfg.MaxRecord, 5 * time.Second},
		{"nested yaml", cfg.Audio.SampleRate, 24000},
		{"default kept", cfg.Audio.Channels, 1},
		{"voice from elevenlabs env", cfg.Voice, "voice-123"},
		{"key from env", cfg.Keys.ElevenLabs, "el-key"},
		{"key from yaml", cfg.Keys.Google, "yaml-google"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() should fail for a missing file")
	}
}

func TestLoadEnvVoiceOnlyForElevenLabs(t *testing.T) {
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-123")
	t.Setenv("DUCKY_VOICE", "")

	cfg := DefaultConfig()
	cfg.TTS = "openai"
	cfg.LoadEnv()
	if cfg.Voice != "" {
		t.Errorf("Voice = %q, want empty for openai", cfg.Voice)
	}

	t.Setenv("DUCKY_VOICE", "nova")
	cfg.LoadEnv()
	if cfg.Voice != "nova" {
		t.Errorf("Voice = %q, want nova", cfg.Voice)
	}
}

func TestLoadEnvKeys(t *testing.T) {
	t.Setenv("WIT_CLIENT_TOKEN", "wit")
	t.Setenv("LLM_API_ENDPOINT", "http://localhost:11434/v1")
	t.Setenv("LLM_API_KEY", "llm")
	t.Setenv("LLM_MODEL", "llama3.2")
	t.Setenv("OPENAI_API_KEY", "oai")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("GOOGLE_ACCESS_TOKEN", "tok")

	cfg := DefaultConfig()
	cfg.LoadEnv()

	if cfg.Keys.Wit != "wit" || cfg.Keys.LLM != "llm" || cfg.Keys.OpenAI != "oai" {
		t.Errorf("keys = %+v", cfg.Keys)
	}
	if cfg.Keys.Google != "gem" {
		t.Errorf("Google key = %q, want GEMINI_API_KEY fallback", cfg.Keys.Google)
	}
	if cfg.Keys.GoogleAccessToken != "tok" {
		t.Errorf("GoogleAccessToken = %q", cfg.Keys.GoogleAccessToken)
	}
	if cfg.LLMEndpoint != "http://localhost:11434/v1" || cfg.LLMModel != "llama3.2" {
		t.Errorf("LLM = %s %s", cfg.LLMEndpoint, cfg.LLMModel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"all mock", func(c *Config) {}, ""},
		{"unknown stt", func(c *Config) { c.STT = "whisper" }, "STT"},
		{"wit without token", func(c *Config) { c.STT = "wit" }, "Keys.Wit"},
		{"wit with token", func(c *Config) { c.STT = "wit"; c.Keys.Wit = "t" }, ""},
		{"google stt uses ADC", func(c *Config) { c.STT = "google" }, ""},
		{"unknown chat", func(c *Config) { c.Chat = "claude" }, "Chat"},
		{"empty chat", func(c *Config) { c.Chat = " , " }, "Chat"},
		{"gemini without key", func(c *Config) { c.Chat = "gemini" }, "Keys.LLM"},
		{"gemini with google key", func(c *Config) { c.Chat = "gemini"; c.Keys.Google = "g" }, ""},
		{"openai without endpoint", func(c *Config) { c.Chat = "openai"; c.LLMEndpoint = "" }, "LLMEndpoint"},
		{"unknown tts", func(c *Config) { c.TTS = "polly" }, "TTS"},
		{"openai tts without key", func(c *Config) { c.TTS = "openai" }, "Keys.OpenAI"},
		{"elevenlabs in chain without key", func(c *Config) { c.TTS = "mock,elevenlabs-ws" }, "Keys.ElevenLabs"},
		{"unknown audio", func(c *Config) { c.Audio.Backend = "pulse" }, "Audio.Backend"},
		{"bad sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "Audio"},
		{"remote without web", func(c *Config) { c.Audio.Backend = audioio.BackendRemote }, "WebAddr"},
		{"zero tick", func(c *Config) { c.Tick = 0 }, "Tick"},
		{"speech rate out of range", func(c *Config) { c.SpeechRate = 10 }, "Voice"},
		{"temperature out of range", func(c *Config) { c.Temperature = 3 }, "Voice"},
		{"no synthesis timeout", func(c *Config) { c.SynthesisTimeout = 0 }, "Voice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mockConfig()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestChains(t *testing.T) {
	cfg := Config{Chat: "openai, gemini", TTS: "elevenlabs-ws,,openai "}
	if got := cfg.ChatChain(); len(got) != 2 || got[1] != "gemini" {
		t.Errorf("ChatChain() = %v", got)
	}
	if got := cfg.TTSChain(); len(got) != 2 || got[0] != "elevenlabs-ws" || got[1] != "openai" {
		t.Errorf("TTSChain() = %v", got)
	}
}

func TestVoiceConfig(t *testing.T) {
	cfg := mockConfig()
	cfg.SpeechRate = 1.25
	cfg.Voice = "nova"

	v := cfg.VoiceConfig()
	if v.SpeechRate != 1.25 || v.Voice != "nova" {
		t.Errorf("voice = %+v", v)
	}
	if v.Model != "" {
		t.Errorf("Model = %q, want empty so each backend uses its own", v.Model)
	}
	if err := v.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

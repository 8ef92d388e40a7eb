package ducky

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/chat"
	"github.com/teslashibe/go-ducky/pkg/stt"
	"github.com/teslashibe/go-ducky/pkg/tts"
)

// mockReply is what the mock chat backend says.
var mockReply = []string{"Quack! ", "Try explaining ", "the problem to me ", "one line at a time."}

// NewTranscriber builds the configured speech-to-text backend.
func NewTranscriber(ctx context.Context, cfg Config, logger *slog.Logger) (stt.Provider, error) {
	opts := []stt.Option{
		stt.WithLanguage(cfg.Language),
		stt.WithLogger(logger),
	}
	switch cfg.STT {
	case "wit":
		return stt.NewWit(append(opts, stt.WithAPIKey(cfg.Keys.Wit))...)
	case "google":
		return stt.NewGoogle(ctx, append(opts,
			stt.WithAPIKey(cfg.Keys.Google),
			stt.WithAccessToken(cfg.Keys.GoogleAccessToken),
		)...)
	case "mock":
		return stt.NewMock("How do I reverse a slice in Go?"), nil
	}
	return nil, fmt.Errorf("unknown stt backend %q", cfg.STT)
}

// NewChat builds the configured chat backend, chaining fallbacks when
// more than one is named.
func NewChat(cfg Config, logger *slog.Logger) (chat.Provider, error) {
	names := cfg.ChatChain()
	providers := make([]chat.Provider, 0, len(names))
	for _, name := range names {
		p, err := newChat(name, cfg, logger)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return chat.NewChain(logger, providers...)
}

func newChat(name string, cfg Config, logger *slog.Logger) (chat.Provider, error) {
	opts := []chat.Option{
		chat.WithTemperature(cfg.Temperature),
		chat.WithMaxTokens(cfg.MaxTokens),
		chat.WithLogger(logger),
	}
	switch name {
	case "openai":
		key := cfg.Keys.LLM
		if key == "" {
			key = cfg.Keys.OpenAI
		}
		return chat.NewClient(append(opts,
			chat.WithBaseURL(cfg.LLMEndpoint),
			chat.WithAPIKey(key),
			chat.WithModel(cfg.LLMModel),
		)...)
	case "gemini":
		key := cfg.Keys.LLM
		if key == "" {
			key = cfg.Keys.Google
		}
		return chat.NewGemini(append(opts, chat.WithAPIKey(key))...)
	case "mock":
		return chat.NewMock(mockReply...), nil
	}
	return nil, fmt.Errorf("unknown chat backend %q", name)
}

// NewSpeaker builds the configured text-to-speech backend, chaining
// fallbacks when more than one is named. The configured voice applies to
// the first backend only; fallbacks use their default voice.
func NewSpeaker(ctx context.Context, cfg Config, logger *slog.Logger) (tts.Provider, error) {
	names := cfg.TTSChain()
	providers := make([]tts.Provider, 0, len(names))
	for i, name := range names {
		if i > 0 {
			cfg.Voice = ""
		}
		p, err := newSpeaker(ctx, name, cfg, logger)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return tts.NewChain(logger, providers...)
}

func newSpeaker(ctx context.Context, name string, cfg Config, logger *slog.Logger) (tts.Provider, error) {
	opts := []tts.Option{
		tts.WithLanguage(cfg.Language),
		tts.WithSpeechRate(cfg.SpeechRate),
		tts.WithLogger(logger),
	}
	if cfg.Voice != "" {
		opts = append(opts, tts.WithVoice(cfg.Voice))
	}
	switch name {
	case "openai":
		return tts.NewOpenAI(append(opts, tts.WithAPIKey(cfg.Keys.OpenAI))...)
	case "elevenlabs":
		return tts.NewElevenLabs(append(opts, tts.WithAPIKey(cfg.Keys.ElevenLabs))...)
	case "elevenlabs-ws":
		return tts.NewElevenLabsWS(append(opts, tts.WithAPIKey(cfg.Keys.ElevenLabs))...)
	case "google":
		return tts.NewGoogle(ctx, append(opts,
			tts.WithAPIKey(cfg.Keys.Google),
			tts.WithAccessToken(cfg.Keys.GoogleAccessToken),
		)...)
	case "mock":
		return tts.NewMock(), nil
	}
	return nil, fmt.Errorf("unknown tts backend %q", name)
}

// NewAudio builds the local capture source and playback sink. The remote
// backend is wired by the App because it needs the web server.
func NewAudio(cfg Config, logger *slog.Logger) (audioio.Source, audioio.Sink, error) {
	src, err := audioio.NewSource(cfg.Audio, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("audio source: %w", err)
	}
	sink, err := audioio.NewSink(cfg.Audio, logger)
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("audio sink: %w", err)
	}
	return src, sink, nil
}

package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-ducky/internal/httpc"
)

const (
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs
const (
	// ModelTurboV2_5 is the fastest English model (~200ms latency).
	ModelTurboV2_5 = "eleven_turbo_v2_5"

	// ModelFlashV2_5 is the fastest multilingual model (~150ms latency).
	ModelFlashV2_5 = "eleven_flash_v2_5"

	// ModelMultilingualV2 is the highest quality multilingual model.
	ModelMultilingualV2 = "eleven_multilingual_v2"
)

// ElevenLabs implements Provider over the ElevenLabs REST API.
type ElevenLabs struct {
	rest
	baseURL string
	voiceID string
}

// NewElevenLabs creates a new ElevenLabs TTS provider. VoiceID may be a
// preset name from ElevenLabsVoices.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = DefaultElevenLabsVoice
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}

	e := &ElevenLabs{
		baseURL: baseURL,
		voiceID: ResolveElevenLabsVoice(cfg.VoiceID),
	}
	e.rest = rest{
		provider: providerElevenLabs,
		config:   cfg,
		client:   httpc.NewClient(cfg.Timeout),
		logger:   cfg.Logger.With("component", "tts.elevenlabs"),
		header: func(req *http.Request) {
			req.Header.Set("xi-api-key", cfg.APIKey)
			req.Header.Set("Accept", "audio/pcm")
		},
		decodeError: decodeElevenLabsError,
	}
	return e, nil
}

// Name returns "elevenlabs".
func (e *ElevenLabs) Name() string {
	return providerElevenLabs
}

// Synthesize converts text to PCM16 at the configured output format.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerElevenLabs, ErrEmptyText)
	}
	start := time.Now()

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", e.baseURL, e.voiceID, e.config.OutputFormat)
	audio, err := e.postJSON(ctx, url, elevenLabsPayload(e.config, text))
	if err != nil {
		return nil, err
	}

	result := newResult(audio, PCMFormat(SampleRateFromEncoding(e.config.OutputFormat)), text, start)
	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", result.LatencyMs,
		"model", e.config.ModelID,
	)
	return result, nil
}

// Health checks API connectivity and API key validity.
func (e *ElevenLabs) Health(ctx context.Context) error {
	return e.get(ctx, e.baseURL+"/user")
}

// Close releases resources held by the provider.
func (e *ElevenLabs) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// VoiceID returns the resolved voice ID.
func (e *ElevenLabs) VoiceID() string {
	return e.voiceID
}

func elevenLabsPayload(cfg *Config, text string) map[string]any {
	settings := map[string]any{
		"stability":         cfg.VoiceSettings.Stability,
		"similarity_boost":  cfg.VoiceSettings.SimilarityBoost,
		"style":             cfg.VoiceSettings.Style,
		"use_speaker_boost": cfg.VoiceSettings.SpeakerBoost,
	}
	if cfg.SpeechRate > 0 && cfg.SpeechRate != 1.0 {
		settings["speed"] = cfg.SpeechRate
	}
	return map[string]any{
		"text":           text,
		"model_id":       cfg.ModelID,
		"voice_settings": settings,
	}
}

func decodeElevenLabsError(body []byte) (string, string) {
	var errResp struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}
	if json.Unmarshal(body, &errResp) != nil {
		return "", ""
	}
	return errResp.Detail.Message, errResp.Detail.Status
}

// Verify ElevenLabs implements Provider at compile time.
var _ Provider = (*ElevenLabs)(nil)

package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-ducky/internal/httpc"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	providerOpenAI = "openai"

	// openAIPCMRate is the fixed rate of OpenAI's "pcm" response format.
	openAIPCMRate = 24000
)

// OpenAI voice options
const (
	VoiceAlloy   = "alloy"   // Neutral voice
	VoiceEcho    = "echo"    // Male voice
	VoiceFable   = "fable"   // British accent
	VoiceOnyx    = "onyx"    // Deep male voice
	VoiceNova    = "nova"    // Female voice
	VoiceShimmer = "shimmer" // Soft female voice
)

// OpenAI model options
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	rest
	baseURL string
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceShimmer
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceShimmer
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	o := &OpenAI{baseURL: baseURL}
	o.rest = rest{
		provider: providerOpenAI,
		config:   cfg,
		client:   httpc.NewClient(cfg.Timeout),
		logger:   cfg.Logger.With("component", "tts.openai"),
		header: func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
		},
		decodeError: decodeOpenAIError,
	}
	return o, nil
}

// Name returns "openai".
func (o *OpenAI) Name() string {
	return providerOpenAI
}

// Synthesize converts text to 24 kHz PCM16.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyText)
	}
	start := time.Now()

	payload := map[string]any{
		"model":           o.config.ModelID,
		"voice":           o.config.VoiceID,
		"input":           text,
		"response_format": "pcm",
	}
	if o.config.SpeechRate > 0 && o.config.SpeechRate != 1.0 {
		payload["speed"] = o.config.SpeechRate
	}

	audio, err := o.postJSON(ctx, o.baseURL+"/audio/speech", payload)
	if err != nil {
		return nil, err
	}

	result := newResult(audio, PCMFormat(openAIPCMRate), text, start)
	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", result.LatencyMs,
		"voice", o.config.VoiceID,
	)
	return result, nil
}

// Health checks API connectivity.
func (o *OpenAI) Health(ctx context.Context) error {
	return o.get(ctx, o.baseURL+"/models")
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// VoiceID returns the configured voice.
func (o *OpenAI) VoiceID() string {
	return o.config.VoiceID
}

func decodeOpenAIError(body []byte) (string, string) {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) != nil {
		return "", ""
	}
	return errResp.Error.Message, errResp.Error.Code
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)

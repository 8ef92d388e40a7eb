package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	elevenLabsWSBaseURL  = "wss://api.elevenlabs.io/v1"
	providerElevenLabsWS = "elevenlabs-ws"
	wsHandshakeTimeout   = 10 * time.Second
)

// ElevenLabsWS synthesizes over the ElevenLabs stream-input websocket.
// Each Synthesize call opens its own connection, sends the whole reply,
// and collects audio frames until the server marks the stream final.
type ElevenLabsWS struct {
	config  *Config
	logger  *slog.Logger
	baseURL string
	voiceID string
	dialer  *websocket.Dialer
	http    *ElevenLabs
}

// NewElevenLabsWS creates a websocket-based ElevenLabs provider.
// BaseURL, when set, is the websocket root (ws:// or wss://).
func NewElevenLabsWS(opts ...Option) (*ElevenLabsWS, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = DefaultElevenLabsVoice
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = elevenLabsWSBaseURL
	}

	// Health goes over REST against the matching http(s) root.
	restOpts := append(append([]Option{}, opts...), WithBaseURL(httpRoot(baseURL)))
	restClient, err := NewElevenLabs(restOpts...)
	if err != nil {
		return nil, err
	}

	return &ElevenLabsWS{
		config:  cfg,
		logger:  cfg.Logger.With("component", "tts.elevenlabs_ws"),
		baseURL: baseURL,
		voiceID: ResolveElevenLabsVoice(cfg.VoiceID),
		dialer:  &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout},
		http:    restClient,
	}, nil
}

// Name returns "elevenlabs-ws".
func (e *ElevenLabsWS) Name() string {
	return providerElevenLabsWS
}

type wsTextMessage struct {
	Text          string         `json:"text"`
	VoiceSettings map[string]any `json:"voice_settings,omitempty"`
	Flush         bool           `json:"flush,omitempty"`
}

type wsAudioMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Synthesize streams text in and collects the full PCM reply.
func (e *ElevenLabsWS) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerElevenLabsWS, ErrEmptyText)
	}
	start := time.Now()

	q := url.Values{}
	q.Set("model_id", e.config.ModelID)
	q.Set("output_format", string(e.config.OutputFormat))
	endpoint := fmt.Sprintf("%s/text-to-speech/%s/stream-input?%s", e.baseURL, e.voiceID, q.Encode())

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	conn, resp, err := e.dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if resp != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: err.Error(), Provider: providerElevenLabsWS}
		}
		return nil, WrapError(providerElevenLabsWS, fmt.Errorf("websocket dial: %w", err))
	}
	defer conn.Close()

	// Unblock ReadJSON when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	settings := elevenLabsPayload(e.config, "")["voice_settings"].(map[string]any)
	messages := []wsTextMessage{
		{Text: " ", VoiceSettings: settings},
		{Text: text + " ", Flush: true},
		{Text: ""},
	}
	for _, m := range messages {
		if err := conn.WriteJSON(m); err != nil {
			return nil, e.connErr(ctx, fmt.Errorf("send text: %w", err))
		}
	}

	var audio []byte
	for {
		var msg wsAudioMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(audio) > 0 {
				break
			}
			return nil, e.connErr(ctx, fmt.Errorf("read audio: %w", err))
		}
		if msg.Error != "" {
			return nil, &APIError{Message: msg.Error, Code: msg.Message, Provider: providerElevenLabsWS}
		}
		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return nil, WrapError(providerElevenLabsWS, fmt.Errorf("decode audio: %w", err))
			}
			audio = append(audio, chunk...)
		}
		if msg.IsFinal {
			break
		}
	}

	result := newResult(audio, PCMFormat(SampleRateFromEncoding(e.config.OutputFormat)), text, start)
	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", result.LatencyMs,
	)
	return result, nil
}

func (e *ElevenLabsWS) connErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return WrapError(providerElevenLabsWS, err)
}

// Health checks the API key over REST.
func (e *ElevenLabsWS) Health(ctx context.Context) error {
	return e.http.Health(ctx)
}

// Close releases resources.
func (e *ElevenLabsWS) Close() error {
	return e.http.Close()
}

// httpRoot maps a websocket root URL to its REST counterpart.
func httpRoot(wsURL string) string {
	switch {
	case strings.HasPrefix(wsURL, "wss://"):
		return "https://" + strings.TrimPrefix(wsURL, "wss://")
	case strings.HasPrefix(wsURL, "ws://"):
		return "http://" + strings.TrimPrefix(wsURL, "ws://")
	}
	return wsURL
}

// Verify ElevenLabsWS implements Provider at compile time.
var _ Provider = (*ElevenLabsWS)(nil)

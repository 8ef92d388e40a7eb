package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	texttospeech "google.golang.org/api/texttospeech/v1"

	"github.com/teslashibe/go-ducky/internal/gcloud"
	"github.com/teslashibe/go-ducky/pkg/wav"
)

const (
	providerGoogle   = "google"
	googleSampleRate = 24000
)

// Google synthesizes with Cloud Text-to-Speech. VoiceID, when set, is a
// full voice name such as "en-US-Neural2-F".
type Google struct {
	config *Config
	svc    *texttospeech.Service
	logger *slog.Logger
}

// NewGoogle creates a Google provider. Credentials come from APIKey,
// AccessToken, or Application Default Credentials, in that order.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = ""
	cfg.Apply(opts...)

	clientOpts, err := gcloud.ClientOptions(ctx, gcloud.Credentials{
		APIKey:      cfg.APIKey,
		AccessToken: cfg.AccessToken,
		Endpoint:    cfg.BaseURL,
	})
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}

	svc, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}
	return &Google{
		config: cfg,
		svc:    svc,
		logger: cfg.Logger.With("component", "tts.google"),
	}, nil
}

// Name returns "google".
func (g *Google) Name() string {
	return providerGoogle
}

// Synthesize requests LINEAR16 audio and strips the WAV header.
func (g *Google) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerGoogle, ErrEmptyText)
	}
	start := time.Now()

	audioCfg := &texttospeech.AudioConfig{
		AudioEncoding:   "LINEAR16",
		SampleRateHertz: googleSampleRate,
	}
	if g.config.SpeechRate > 0 {
		audioCfg.SpeakingRate = g.config.SpeechRate
	}
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.config.Language,
			Name:         g.config.VoiceID,
		},
		AudioConfig: audioCfg,
	}

	resp, err := g.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, googleError(err)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("decode audio content: %w", err))
	}

	audio, rate := raw, googleSampleRate
	if wav.IsWAV(raw) {
		clip, err := wav.Decode(raw)
		if err != nil {
			return nil, WrapError(providerGoogle, fmt.Errorf("decode wav: %w", err))
		}
		audio = clip.Bytes()
		rate = clip.SampleRate
	}

	result := newResult(audio, PCMFormat(rate), text, start)
	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", result.LatencyMs,
	)
	return result, nil
}

// Health lists voices for the configured language.
func (g *Google) Health(ctx context.Context) error {
	_, err := g.svc.Voices.List().LanguageCode(g.config.Language).Context(ctx).Do()
	if err != nil {
		return googleError(err)
	}
	return nil
}

// Close is a no-op.
func (g *Google) Close() error {
	return nil
}

func googleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Provider:   providerGoogle,
		}
	}
	return WrapError(providerGoogle, err)
}

// Verify Google implements Provider at compile time.
var _ Provider = (*Google)(nil)

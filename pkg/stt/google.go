package stt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"

	"github.com/teslashibe/go-ducky/internal/gcloud"
	"github.com/teslashibe/go-ducky/pkg/wav"
)

const providerGoogle = "google"

// Google transcribes with Cloud Speech-to-Text synchronous recognition.
// It yields exactly one final chunk per utterance.
type Google struct {
	config *Config
	svc    *speech.Service
	logger *slog.Logger
}

// NewGoogle creates a Google provider. The base URL defaults to the
// public endpoint.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = ""
	cfg.Apply(opts...)

	clientOpts, err := gcloud.ClientOptions(ctx, gcloud.Credentials{
		APIKey:      cfg.APIKey,
		AccessToken: cfg.AccessToken,
		Endpoint:    cfg.BaseURL,
	})
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}
	if cfg.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.HTTPClient))
	}

	svc, err := speech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}
	return &Google{
		config: cfg,
		svc:    svc,
		logger: cfg.Logger.With("component", "stt.google"),
	}, nil
}

// Name returns "google".
func (g *Google) Name() string {
	return providerGoogle
}

// Transcribe runs synchronous recognition on the WAV.
func (g *Google) Transcribe(ctx context.Context, data []byte) (Stream, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	clip, err := wav.Decode(data)
	if err != nil {
		return nil, &ParseError{Provider: providerGoogle, Data: "wav header", Err: err}
	}

	req := &speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            int64(clip.SampleRate),
			AudioChannelCount:          int64(clip.Channels),
			LanguageCode:               g.config.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
	}

	resp, err := g.svc.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		return nil, googleError(err)
	}

	var parts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, " ")
	g.logger.Debug("recognized", "text", text, "results", len(resp.Results))

	if text == "" {
		return &sliceStream{}, nil
	}
	return &sliceStream{chunks: []*Chunk{{Type: TypeFinalTranscription, Text: text, IsFinal: true}}}, nil
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

var _ Provider = (*Google)(nil)

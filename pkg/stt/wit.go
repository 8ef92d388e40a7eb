package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teslashibe/go-ducky/internal/httpc"
)

const providerWit = "wit"

// Wit transcribes with the Wit.ai /speech endpoint. The response is a
// chunked stream of JSON objects, one per recognition update.
type Wit struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewWit creates a Wit provider.
func NewWit(opts ...Option) (*Wit, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewStreamingClient(cfg.HeaderTimeout)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Wit{
		config: cfg,
		http:   hc,
		logger: cfg.Logger.With("component", "stt.wit"),
	}, nil
}

// Name returns "wit".
func (w *Wit) Name() string {
	return providerWit
}

// Transcribe posts the WAV and streams the recognition updates.
func (w *Wit) Transcribe(ctx context.Context, wav []byte) (Stream, error) {
	if len(wav) == 0 {
		return nil, ErrEmptyAudio
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.BaseURL+"/speech", bytes.NewReader(wav))
	if err != nil {
		return nil, WrapError(providerWit, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+w.config.APIKey)
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("Accept", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, WrapError(providerWit, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseWitError(resp)
	}

	w.logger.Debug("transcription started", "bytes", len(wav))
	return &witStream{
		body:      resp.Body,
		scan:      newObjectScanner(resp.Body),
		finalOnly: w.config.FinalOnly,
		logger:    w.logger,
	}, nil
}

// Close releases idle connections.
func (w *Wit) Close() error {
	w.http.CloseIdleConnections()
	return nil
}

type witStream struct {
	body      io.ReadCloser
	scan      *objectScanner
	finalOnly bool
	logger    *slog.Logger
}

func (s *witStream) Recv() (*Chunk, error) {
	for {
		obj, err := s.scan.Next()
		if errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Warn("transcript stream ended mid-object", "data", string(obj))
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, errObjectTooLarge) {
			s.logger.Warn("skipping oversized transcript object",
				"error", &ParseError{Provider: providerWit, Data: string(obj), Err: err})
			continue
		}
		if err != nil {
			return nil, WrapError(providerWit, fmt.Errorf("read stream: %w", err))
		}

		var chunk Chunk
		if err := json.Unmarshal(obj, &chunk); err != nil {
			s.logger.Warn("skipping malformed transcript object",
				"error", &ParseError{Provider: providerWit, Data: string(obj), Err: err})
			continue
		}
		chunk.Text = strings.TrimSpace(chunk.Text)
		if chunk.Text == "" {
			continue
		}
		s.logger.Debug("transcript chunk", "type", chunk.Type, "text", chunk.Text)
		if s.finalOnly && !chunk.Final() {
			continue
		}
		return &chunk, nil
	}
}

func (s *witStream) Close() error {
	return s.body.Close()
}

func parseWitError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	message := strings.TrimSpace(string(body))
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
		code = errResp.Code
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerWit,
	}
}

var _ Provider = (*Wit)(nil)

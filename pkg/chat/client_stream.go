package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Stream returns a streaming chat reply over SSE.
func (c *Client) Stream(ctx context.Context, req *Request) (Stream, error) {
	model := c.model(req)

	resp, err := c.post(ctx, c.stream, completionsPath, c.buildPayload(req, model, true))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.parseError(resp)
	}

	c.logger.Debug("stream opened", "model", model, "messages", len(req.Messages))
	return &clientStream{
		sse:    newSSEReader(resp.Body),
		body:   resp.Body,
		logger: c.logger,
	}, nil
}

// clientStream implements Stream for OpenAI-style SSE responses.
type clientStream struct {
	sse    *sseReader
	body   io.ReadCloser
	logger *slog.Logger
	done   bool
}

// Recv returns the next non-empty chunk.
func (s *clientStream) Recv() (*StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		data, err := s.sse.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			return &StreamChunk{Done: true}, nil
		}
		if err != nil {
			return nil, WrapError(providerOpenAI, fmt.Errorf("read stream: %w", err))
		}

		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			s.done = true
			return &StreamChunk{Done: true}, nil
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			s.logger.Warn("skipping malformed stream frame",
				"error", &ParseError{Provider: providerOpenAI, Data: truncate(data, 200), Err: err})
			continue
		}
		if len(event.Choices) == 0 {
			continue
		}

		choice := event.Choices[0]
		if choice.Delta.Content == "" && choice.FinishReason == "" {
			continue
		}
		chunk := &StreamChunk{
			Delta:        choice.Delta.Content,
			FinishReason: choice.FinishReason,
			Done:         choice.FinishReason != "",
		}
		s.done = chunk.Done
		return chunk, nil
	}
}

// Close stops the stream.
func (s *clientStream) Close() error {
	s.done = true
	return s.body.Close()
}

// streamEvent is the SSE event format.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Package stt turns recorded speech into text.
//
// A Provider takes one WAV utterance and returns a Stream of transcript
// chunks. Backends differ in how much they stream: Wit emits partial and
// final chunks as it recognizes, Google returns a single final chunk.
//
//	p, _ := stt.NewWit(stt.WithAPIKey(os.Getenv("WIT_CLIENT_TOKEN")))
//	s, _ := p.Transcribe(ctx, capture.WAV())
//	text, _ := stt.FinalTranscript(ctx, s, nil)
package stt

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Chunk types reported by Wit.
const (
	TypePartialTranscription = "PARTIAL_TRANSCRIPTION"
	TypeFinalTranscription   = "FINAL_TRANSCRIPTION"
	TypePartialUnderstanding = "PARTIAL_UNDERSTANDING"
	TypeFinalUnderstanding   = "FINAL_UNDERSTANDING"
)

// Provider transcribes audio.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe sends one WAV-encoded utterance. The returned stream is
	// finite and must be closed by the caller.
	Transcribe(ctx context.Context, wav []byte) (Stream, error)

	// Close releases resources.
	Close() error
}

// Stream yields transcript chunks in arrival order.
type Stream interface {
	// Recv returns the next chunk, or io.EOF when the response is done.
	Recv() (*Chunk, error)

	// Close aborts the response.
	Close() error
}

// Chunk is one transcript update.
type Chunk struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// Final reports whether the chunk ends an utterance.
func (c *Chunk) Final() bool {
	return c.IsFinal || c.Type == TypeFinalTranscription || c.Type == TypeFinalUnderstanding
}

// FinalTranscript drains s and returns the text of the last non-empty
// final chunk. Every chunk is passed to onChunk first, if set. An empty
// string with a nil error means nothing was recognized.
func FinalTranscript(ctx context.Context, s Stream, onChunk func(*Chunk)) (string, error) {
	defer s.Close()

	var final string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return final, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", err
		}
		if onChunk != nil {
			onChunk(chunk)
		}
		if text := strings.TrimSpace(chunk.Text); text != "" && chunk.Final() {
			final = text
		}
	}
}

// sliceStream replays a fixed set of chunks.
type sliceStream struct {
	chunks []*Chunk
	pos    int
	err    error
}

func (s *sliceStream) Recv() (*Chunk, error) {
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *sliceStream) Close() error { return nil }

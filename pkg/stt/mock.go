package stt

import (
	"context"
	"sync"
	"time"
)

// Mock is a scripted provider for tests and offline runs.
type Mock struct {
	// Chunks are returned, in order, by every Transcribe call.
	Chunks []*Chunk

	// Err, if set, is returned by Transcribe.
	Err error

	// StreamErr, if set, is returned by Recv after the chunks.
	StreamErr error

	// Delay is waited out (or cancelled) before Transcribe returns.
	Delay time.Duration

	mu    sync.Mutex
	calls int
	last  []byte
}

// NewMock returns a mock that recognizes text as one final chunk.
// An empty text recognizes nothing.
func NewMock(text string) *Mock {
	m := &Mock{}
	if text != "" {
		m.Chunks = []*Chunk{
			{Type: TypePartialTranscription, Text: text},
			{Type: TypeFinalTranscription, Text: text, IsFinal: true},
		}
	}
	return m
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Transcribe records the call and returns the scripted stream.
func (m *Mock) Transcribe(ctx context.Context, wav []byte) (Stream, error) {
	m.mu.Lock()
	m.calls++
	m.last = wav
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &sliceStream{chunks: m.Chunks, err: m.StreamErr}, nil
}

// Calls returns how many times Transcribe was called.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastAudio returns the WAV passed to the most recent call.
func (m *Mock) LastAudio() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

var _ Provider = (*Mock)(nil)

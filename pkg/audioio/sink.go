package audioio

import (
	"context"
	"io"
)

// Sink plays audio to a speaker or other output device.
type Sink interface {
	// Start prepares the sink for playback.
	Start(ctx context.Context) error

	// Stop halts audio playback. It is safe to call Stop multiple times.
	Stop() error

	// Write queues an audio chunk for playback. Chunks at a different
	// sample rate than the sink are resampled.
	Write(ctx context.Context, chunk AudioChunk) error

	// Clear discards all queued audio immediately.
	// Use this to interrupt playback on cancel.
	Clear() error

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name.
	Name() string

	// Close releases all resources.
	io.Closer
}

// SinkStats contains statistics about the audio sink.
type SinkStats struct {
	ChunksWritten  int64  `json:"chunks_written"`
	SamplesWritten int64  `json:"samples_written"`
	Clears         int64  `json:"clears"`
	Running        bool   `json:"running"`
	Backend        string `json:"backend"`
}

// SinkWithStats extends Sink with statistics.
type SinkWithStats interface {
	Sink
	Stats() SinkStats
}

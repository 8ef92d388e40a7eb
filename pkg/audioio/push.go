package audioio

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// PushSource is a Source fed by an external producer, such as a headset
// streaming microphone frames over a websocket. Frames pushed while the
// source is stopped are dropped.
type PushSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	ch      chan AudioChunk
	done    chan struct{}

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

// NewPushSource creates a push-fed source.
func NewPushSource(cfg Config, logger *slog.Logger) *PushSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushSource{
		cfg:    cfg,
		logger: logger.With("component", "audioio.push_source"),
	}
}

// Start opens the source for pushed frames.
func (p *PushSource) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return io.ErrClosedPipe
	}
	if p.running {
		return nil
	}
	p.running = true
	p.ch = make(chan AudioChunk, 256)
	p.done = make(chan struct{})

	go func(ch chan AudioChunk, done chan struct{}) {
		select {
		case <-ctx.Done():
			p.stopIf(ch)
		case <-done:
		}
	}(p.ch, p.done)
	return nil
}

// Push delivers a chunk. It never blocks; when the buffer is full the
// chunk is counted as an overrun and dropped. Chunks at a different rate
// than the source are resampled.
func (p *PushSource) Push(chunk AudioChunk) bool {
	if chunk.Channels > 1 && p.cfg.Channels == 1 {
		chunk.Samples = StereoToMono(chunk.Samples)
		chunk.Channels = 1
	}
	if chunk.SampleRate != 0 && chunk.SampleRate != p.cfg.SampleRate {
		chunk.Samples = Resample(chunk.Samples, chunk.SampleRate, p.cfg.SampleRate)
	}
	chunk.SampleRate = p.cfg.SampleRate
	chunk.Channels = p.cfg.Channels

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return false
	}
	select {
	case p.ch <- chunk:
		p.chunksRead.Add(1)
		p.samplesRead.Add(int64(len(chunk.Samples)))
		return true
	default:
		p.overruns.Add(1)
		return false
	}
}

// Stop closes the current capture window.
func (p *PushSource) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *PushSource) stopIf(ch chan AudioChunk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == ch {
		p.stopLocked()
	}
}

func (p *PushSource) stopLocked() {
	if !p.running {
		return
	}
	p.running = false
	close(p.ch)
	close(p.done)
}

// Read returns the next pushed chunk, or io.EOF once stopped and drained.
func (p *PushSource) Read(ctx context.Context) (AudioChunk, error) {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	if ch == nil {
		return AudioChunk{}, io.EOF
	}
	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-ch:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Config returns the audio configuration.
func (p *PushSource) Config() Config {
	return p.cfg
}

// Name returns "remote".
func (p *PushSource) Name() string {
	return string(BackendRemote)
}

// Close stops the source permanently.
func (p *PushSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.stopLocked()
	return nil
}

// Stats returns source statistics.
func (p *PushSource) Stats() SourceStats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	return SourceStats{
		ChunksRead:  p.chunksRead.Load(),
		SamplesRead: p.samplesRead.Load(),
		Overruns:    p.overruns.Load(),
		Running:     running,
		Backend:     string(BackendRemote),
	}
}

var _ SourceWithStats = (*PushSource)(nil)

package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/hub"
	"github.com/teslashibe/go-ducky/pkg/protocol"
	"github.com/teslashibe/go-ducky/pkg/wav"
)

// RemoteSink plays audio on headsets connected to the control channel.
// Each Write becomes one speak message carrying a WAV file; Clear sends
// stop so headsets drop whatever they have queued.
type RemoteSink struct {
	hub    *hub.Hub
	cfg    audioio.Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
	clears         atomic.Int64
}

// NewRemoteSink creates a sink that broadcasts on h.
func NewRemoteSink(h *hub.Hub, cfg audioio.Config, logger *slog.Logger) *RemoteSink {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Backend = audioio.BackendRemote
	return &RemoteSink{
		hub:    h,
		cfg:    cfg,
		logger: logger.With("component", "web.remote_sink"),
	}
}

// Start enables playback.
func (r *RemoteSink) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return io.ErrClosedPipe
	}
	r.running = true
	return nil
}

// Write sends chunk to every headset. It fails with audioio.ErrNoDevice
// when no headset is connected.
func (r *RemoteSink) Write(ctx context.Context, chunk audioio.AudioChunk) error {
	r.mu.Lock()
	ok := r.running && !r.closed
	r.mu.Unlock()
	if !ok {
		return io.ErrClosedPipe
	}
	if r.hub.ClientCount() == 0 {
		return fmt.Errorf("%w: no headset connected", audioio.ErrNoDevice)
	}

	rate := chunk.SampleRate
	if rate == 0 {
		rate = r.cfg.SampleRate
	}
	channels := max(chunk.Channels, 1)
	chunk.SampleRate, chunk.Channels = rate, channels

	msg, err := protocol.NewSpeakMessage(wav.Encode(chunk.Samples, rate, channels), rate, channels, chunk.Duration())
	if err != nil {
		return err
	}
	wire, err := hub.NewProtocolMessage(msg)
	if err != nil {
		return err
	}
	r.hub.Broadcast(wire)

	r.chunksWritten.Add(1)
	r.samplesWritten.Add(int64(len(chunk.Samples)))
	r.logger.Debug("speak sent", "duration", chunk.Duration(), "headsets", r.hub.ClientCount())
	return nil
}

// Clear tells headsets to stop playback.
func (r *RemoteSink) Clear() error {
	r.clears.Add(1)
	return r.hub.Publish(protocol.TypeStop, nil)
}

// Stop halts playback.
func (r *RemoteSink) Stop() error {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return r.Clear()
}

// Config returns the audio configuration.
func (r *RemoteSink) Config() audioio.Config {
	return r.cfg
}

// Name returns "remote".
func (r *RemoteSink) Name() string {
	return string(audioio.BackendRemote)
}

// Close stops playback permanently.
func (r *RemoteSink) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.Stop()
}

// Stats returns sink statistics.
func (r *RemoteSink) Stats() audioio.SinkStats {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()

	return audioio.SinkStats{
		ChunksWritten:  r.chunksWritten.Load(),
		SamplesWritten: r.samplesWritten.Load(),
		Clears:         r.clears.Load(),
		Running:        running,
		Backend:        string(audioio.BackendRemote),
	}
}

var _ audioio.SinkWithStats = (*RemoteSink)(nil)

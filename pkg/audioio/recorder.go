package audioio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-ducky/pkg/wav"
)

// DefaultMaxRecord is the longest utterance kept by a Recorder.
const DefaultMaxRecord = 15 * time.Second

// Capture is one finished recording.
type Capture struct {
	Samples    []int16
	SampleRate int
	Channels   int

	// Truncated is set when the talk control was held past the limit.
	Truncated bool
}

// WAV encodes the capture as a PCM16 WAV file.
func (c *Capture) WAV() []byte {
	return wav.Encode(c.Samples, c.SampleRate, c.Channels)
}

// Duration returns the recorded length.
func (c *Capture) Duration() time.Duration {
	chunk := AudioChunk{Samples: c.Samples, SampleRate: c.SampleRate, Channels: c.Channels}
	return chunk.Duration()
}

// Empty reports whether nothing was captured.
func (c *Capture) Empty() bool {
	return c == nil || len(c.Samples) == 0
}

// Recorder drains a Source into a bounded buffer between Start and Stop.
type Recorder struct {
	src    Source
	max    time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	buf       []int16
	limit     int
	truncated bool
	level     float64
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRecorder wraps src. A non-positive maxDuration means DefaultMaxRecord.
func NewRecorder(src Source, maxDuration time.Duration, logger *slog.Logger) *Recorder {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxRecord
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		src:    src,
		max:    maxDuration,
		logger: logger.With("component", "audioio.recorder"),
	}
}

// Start begins a new recording, discarding any previous one.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return errors.New("audioio: recorder already running")
	}

	cfg := r.src.Config()
	r.limit = int(r.max.Seconds()*float64(cfg.SampleRate)) * cfg.Channels
	r.buf = make([]int16, 0, min(r.limit, cfg.SampleRate*cfg.Channels*4))
	r.truncated = false
	r.level = 0
	r.mu.Unlock()

	if err := r.src.Start(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go r.loop(loopCtx, done)
	return nil
}

func (r *Recorder) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		chunk, err := r.src.Read(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				r.logger.Warn("capture read failed", "error", err)
			}
			return
		}
		r.append(chunk.Samples)
	}
}

func (r *Recorder) append(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.level = Level(samples)
	room := r.limit - len(r.buf)
	if room <= 0 {
		if !r.truncated {
			r.logger.Info("max record length reached", "max", r.max)
		}
		r.truncated = true
		return
	}
	if len(samples) > room {
		samples = samples[:room]
		r.truncated = true
	}
	r.buf = append(r.buf, samples...)
}

// Level returns the RMS level of the most recent chunk.
func (r *Recorder) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

// Recording reports whether Start has been called without a matching Stop.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Stop ends the recording and returns what was captured. Stop on an idle
// recorder returns an empty capture.
func (r *Recorder) Stop() *Capture {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	cfg := r.src.Config()
	if cancel == nil {
		return &Capture{SampleRate: cfg.SampleRate, Channels: cfg.Channels}
	}

	if err := r.src.Stop(); err != nil {
		r.logger.Warn("source stop failed", "error", err)
	}
	cancel()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	c := &Capture{
		Samples:    r.buf,
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Truncated:  r.truncated,
	}
	r.buf = nil
	return c
}

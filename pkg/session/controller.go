package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/chat"
	"github.com/teslashibe/go-ducky/pkg/stt"
	"github.com/teslashibe/go-ducky/pkg/tts"
	"github.com/teslashibe/go-ducky/pkg/voice"
)

// Capturer records microphone audio between Start and Stop.
// *audioio.Recorder satisfies it.
type Capturer interface {
	Start(ctx context.Context) error
	Stop() *audioio.Capture
}

// Config wires a Controller to its collaborators.
type Config struct {
	Capture     Capturer
	Transcriber stt.Provider
	Chat        chat.Provider

	// Speaker is wrapped in tts.NewBounded using Voice.SynthesisTimeout
	// unless it is already bounded.
	Speaker tts.Provider

	// Sink plays synthesized audio. It may be nil, in which case the
	// controller only waits out the playback duration.
	Sink audioio.Sink

	Executor *Executor

	// History defaults to a new history seeded with Voice.SystemPrompt.
	History *History

	Observer Observer
	Metrics  *voice.MetricsCollector
	Voice    voice.Config
	Logger   *slog.Logger
}

// Controller is the push-to-talk state machine. Its exported methods are
// safe to call from any goroutine; they post events to the executor.
type Controller struct {
	capture     Capturer
	transcriber stt.Provider
	chat        chat.Provider
	speaker     tts.Provider
	sink        audioio.Sink
	exec        *Executor
	history     *History
	observer    Observer
	metrics     *voice.MetricsCollector
	voice       voice.Config
	logger      *slog.Logger

	ctx    context.Context
	stop   context.CancelFunc
	closed sync.Once

	// Owned by the executor.
	state State
	cycle *cycle

	// Mirrors for readers outside the executor.
	published atomic.Int32
	cycleID   atomic.Value
}

// New validates cfg and builds a controller in the Idle state.
func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Capture == nil:
		return nil, errors.New("session: capture is required")
	case cfg.Transcriber == nil:
		return nil, errors.New("session: transcriber is required")
	case cfg.Chat == nil:
		return nil, errors.New("session: chat provider is required")
	case cfg.Speaker == nil:
		return nil, errors.New("session: speaker is required")
	case cfg.Executor == nil:
		return nil, errors.New("session: executor is required")
	}

	if cfg.Voice == (voice.Config{}) {
		cfg.Voice = voice.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = voice.NewMetricsCollector()
	}
	if cfg.History == nil {
		cfg.History = NewHistory(cfg.Voice.SystemPrompt)
	}
	speaker := cfg.Speaker
	if _, ok := speaker.(*tts.Bounded); !ok {
		speaker = tts.NewBounded(speaker, cfg.Voice.SynthesisTimeout)
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		capture:     cfg.Capture,
		transcriber: cfg.Transcriber,
		chat:        cfg.Chat,
		speaker:     speaker,
		sink:        cfg.Sink,
		exec:        cfg.Executor,
		history:     cfg.History,
		observer:    cfg.Observer,
		metrics:     cfg.Metrics,
		voice:       cfg.Voice,
		logger:      cfg.Logger.With("component", "session"),
		ctx:         ctx,
		stop:        stop,
	}
	c.cycleID.Store("")
	return c, nil
}

// PressTalk starts listening when Idle.
func (c *Controller) PressTalk() { c.exec.Post(c.pressTalk) }

// ReleaseTalk ends listening and starts transcription.
func (c *Controller) ReleaseTalk() { c.exec.Post(c.releaseTalk) }

// ToggleTalk presses when Idle and releases when Listening.
func (c *Controller) ToggleTalk() {
	c.exec.Post(func() {
		switch c.state {
		case Idle:
			c.pressTalk()
		case Listening:
			c.releaseTalk()
		default:
			c.ignore("toggle")
		}
	})
}

// Cancel aborts the current cycle and returns to Idle.
func (c *Controller) Cancel() { c.exec.Post(c.cancel) }

// State returns the most recently published state.
func (c *Controller) State() State {
	return State(c.published.Load())
}

// CycleID returns the current cycle ID, or "" when Idle.
func (c *Controller) CycleID() string {
	return c.cycleID.Load().(string)
}

// History returns the conversation history.
func (c *Controller) History() *History {
	return c.history
}

// Metrics returns the latency collector.
func (c *Controller) Metrics() *voice.MetricsCollector {
	return c.metrics
}

// Close cancels any in-flight work. Pending completions are dropped.
func (c *Controller) Close() {
	c.closed.Do(func() {
		c.Cancel()
		c.stop()
	})
}

func (c *Controller) pressTalk() {
	if c.state != Idle {
		c.ignore("press")
		return
	}
	if c.ctx.Err() != nil {
		c.logger.Debug("controller closed, ignoring press")
		return
	}

	cy := newCycle(c.ctx)
	c.cycle = cy
	c.cycleID.Store(cy.id.String())

	if err := c.capture.Start(cy.ctx); err != nil {
		c.fail(NewFailure(StageCapture, err))
		return
	}
	c.logger.Debug("listening", "cycle", cy.id)
	c.setState(Listening)
}

func (c *Controller) releaseTalk() {
	if c.state != Listening {
		c.ignore("release")
		return
	}

	cy := c.cycle
	captured := c.capture.Stop()
	c.metrics.MarkCaptureEnd(captured.Duration())

	if captured.Empty() {
		c.fail(NewFailure(StageCapture, ErrNoAudio))
		return
	}
	if captured.Truncated {
		c.logger.Info("utterance truncated", "max", c.voice.MaxRecord)
	}

	c.setState(Transcribing)
	go c.transcribe(cy, captured)
}

func (c *Controller) transcribe(cy *cycle, captured *audioio.Capture) {
	var text string
	stream, err := c.transcriber.Transcribe(cy.ctx, captured.WAV())
	if err == nil {
		text, err = stt.FinalTranscript(cy.ctx, stream, func(chunk *stt.Chunk) {
			t, final := chunk.Text, chunk.Final()
			c.post(cy, func() { c.observer.OnTranscript(t, final) })
		})
	}
	c.post(cy, func() { c.transcribed(cy, text, err) })
}

func (c *Controller) transcribed(cy *cycle, text string, err error) {
	c.metrics.MarkTranscript()
	if err != nil {
		c.fail(NewFailure(StageTranscribe, err))
		return
	}
	if text == "" {
		c.logger.Info("nothing recognized")
		c.finish()
		return
	}

	c.logger.Info("transcript", "text", text)
	c.history.Append(chat.NewUserMessage(text))
	c.setState(Thinking)

	req := &chat.Request{
		Messages:    c.history.Snapshot(),
		Model:       c.voice.Model,
		MaxTokens:   c.voice.MaxTokens,
		Temperature: c.voice.Temperature,
	}
	go c.think(cy, req)
}

func (c *Controller) think(cy *cycle, req *chat.Request) {
	var reply string
	stream, err := c.chat.Stream(cy.ctx, req)
	if err == nil {
		reply, err = chat.Collect(cy.ctx, stream, func(tok string) {
			c.post(cy, func() {
				c.metrics.MarkToken()
				c.observer.OnToken(tok)
			})
		})
	}
	c.post(cy, func() { c.replied(cy, reply, err) })
}

func (c *Controller) replied(cy *cycle, reply string, err error) {
	c.metrics.MarkReplyDone()
	if err != nil {
		c.fail(NewFailure(StageChat, err))
		return
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		c.logger.Info("empty reply")
		c.finish()
		return
	}

	c.history.Append(chat.NewAssistantMessage(reply))
	c.observer.OnReply(reply)
	c.setState(Speaking)
	go c.speak(cy, reply)
}

func (c *Controller) speak(cy *cycle, reply string) {
	result, err := c.speaker.Synthesize(cy.ctx, reply)
	if err != nil {
		c.post(cy, func() { c.fail(NewFailure(StageSpeak, err)) })
		return
	}
	if result.Empty() {
		c.post(cy, func() { c.fail(NewFailure(StageSpeak, ErrNoAudio)) })
		return
	}
	c.post(cy, func() { c.metrics.MarkAudioReady() })

	start := time.Now()
	if c.sink != nil {
		chunk := audioio.AudioChunk{
			Samples:    result.Samples(),
			SampleRate: result.Format.SampleRate,
			Channels:   max(result.Format.Channels, 1),
		}
		if err := c.sink.Write(cy.ctx, chunk); err != nil {
			if cy.live() {
				f := &Failure{Kind: DeviceFailure, Stage: StageSpeak, Err: fmt.Errorf("%w: %v", ErrNoAudio, err)}
				c.post(cy, func() { c.fail(f) })
			}
			return
		}
	}

	// Playback ends when the reply's duration has elapsed since the first
	// write, regardless of how long Write blocked.
	if remaining := result.Duration - time.Since(start); remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-cy.ctx.Done():
			return
		case <-timer.C:
		}
	}
	c.post(cy, func() {
		c.metrics.MarkPlaybackDone()
		c.finish()
	})
}

func (c *Controller) cancel() {
	if c.state == Idle {
		c.ignore("cancel")
		return
	}

	from := c.state
	if c.cycle != nil {
		c.cycle.cancel()
	}
	if from == Listening {
		c.capture.Stop()
	}
	if c.sink != nil {
		if err := c.sink.Clear(); err != nil {
			c.logger.Warn("sink clear failed", "error", err)
		}
	}
	c.metrics.MarkCancelled()

	c.logger.Info("cancelled", "state", from)
	c.observer.OnFailure(&Failure{Kind: CancellationRequested, Stage: stageOf(from), Err: context.Canceled})
	c.finish()
}

// post queues fn to run only while cy is still the current cycle.
func (c *Controller) post(cy *cycle, fn func()) {
	c.exec.Post(func() {
		if c.cycle != cy || !cy.live() {
			c.logger.Debug("dropping stale completion", "cycle", cy.id)
			return
		}
		fn()
	})
}

func (c *Controller) fail(f *Failure) {
	c.logger.Warn("cycle failed",
		"stage", f.Stage,
		"kind", f.Kind,
		"error", f.Err,
	)
	c.observer.OnFailure(f)
	c.finish()
}

// finish ends the current cycle and returns to Idle. History is kept.
func (c *Controller) finish() {
	if c.cycle != nil {
		c.cycle.cancel()
		c.cycle = nil
	}
	c.cycleID.Store("")
	c.setState(Idle)
}

func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.published.Store(int32(to))
	c.observer.OnState(from, to)
}

func (c *Controller) ignore(event string) {
	c.logger.Debug("event ignored", "event", event, "state", c.state)
}

func stageOf(s State) Stage {
	switch s {
	case Listening:
		return StageCapture
	case Transcribing:
		return StageTranscribe
	case Thinking:
		return StageChat
	}
	return StageSpeak
}

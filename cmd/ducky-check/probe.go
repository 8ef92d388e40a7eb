package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/teslashibe/go-ducky/pkg/chat"
	"github.com/teslashibe/go-ducky/pkg/stt"
	"github.com/teslashibe/go-ducky/pkg/tts"
	"github.com/teslashibe/go-ducky/pkg/voice"
	"github.com/teslashibe/go-ducky/pkg/wav"
)

// Result holds one probe loop.
type Result struct {
	Loop       int
	Transcript string
	Reply      string
	Metrics    voice.Metrics
	Stage      string
	Err        error
}

// Prober runs push-to-talk cycles against real backends, stage by stage,
// without audio devices.
type Prober struct {
	transcriber stt.Provider
	chat        chat.Provider
	speaker     tts.Provider
	voice       voice.Config

	// fallback replaces an empty transcript, which synthetic audio
	// almost always produces.
	fallback string
	metrics  *voice.MetricsCollector
}

// NewProber creates a prober.
func NewProber(t stt.Provider, c chat.Provider, s tts.Provider, cfg voice.Config, fallback string) *Prober {
	return &Prober{
		transcriber: t,
		chat:        c,
		speaker:     tts.NewBounded(s, cfg.SynthesisTimeout),
		voice:       cfg,
		fallback:    fallback,
		metrics:     voice.NewMetricsCollector(),
	}
}

// Metrics returns the collector that archived every loop.
func (p *Prober) Metrics() *voice.MetricsCollector {
	return p.metrics
}

// Run executes loops cycles on utterance and stops early when ctx ends.
func (p *Prober) Run(ctx context.Context, loops int, utterance *wav.Clip, onResult func(Result)) []Result {
	results := make([]Result, 0, loops)
	body := wav.Encode(utterance.Samples, utterance.SampleRate, utterance.Channels)
	for i := 1; i <= loops; i++ {
		if ctx.Err() != nil {
			break
		}
		r := p.cycle(ctx, body, utterance.Duration())
		r.Loop = i
		results = append(results, r)
		if onResult != nil {
			onResult(r)
		}
	}
	return results
}

func (p *Prober) cycle(ctx context.Context, body []byte, captured time.Duration) (r Result) {
	p.metrics.MarkCaptureEnd(captured)
	defer func() {
		if r.Err != nil {
			p.metrics.MarkCancelled()
		}
		r.Metrics = p.metrics.Current()
	}()

	stream, err := p.transcriber.Transcribe(ctx, body)
	if err == nil {
		r.Transcript, err = stt.FinalTranscript(ctx, stream, nil)
	}
	p.metrics.MarkTranscript()
	if err != nil {
		r.Stage, r.Err = "stt", err
		return r
	}

	question := r.Transcript
	if question == "" {
		question = p.fallback
	}
	if question == "" {
		r.Stage, r.Err = "stt", errors.New("empty transcript")
		return r
	}

	req := &chat.Request{
		Messages: []chat.Message{
			chat.NewSystemMessage(p.voice.SystemPrompt),
			chat.NewUserMessage(question),
		},
		Model:       p.voice.Model,
		MaxTokens:   p.voice.MaxTokens,
		Temperature: p.voice.Temperature,
	}
	cs, err := p.chat.Stream(ctx, req)
	if err == nil {
		r.Reply, err = chat.Collect(ctx, cs, func(string) { p.metrics.MarkToken() })
	}
	p.metrics.MarkReplyDone()
	if err != nil {
		r.Stage, r.Err = "chat", err
		return r
	}
	if r.Reply == "" {
		r.Stage, r.Err = "chat", errors.New("empty reply")
		return r
	}

	audio, err := p.speaker.Synthesize(ctx, r.Reply)
	if err != nil {
		r.Stage, r.Err = "tts", err
		return r
	}
	if audio.Empty() {
		r.Stage, r.Err = "tts", errors.New("no audio")
		return r
	}
	p.metrics.MarkAudioReady()
	p.metrics.MarkPlaybackDone()
	return r
}

// SpeechLike builds a voiced test signal: a 200-400 Hz fundamental with
// two harmonics and a 4 Hz syllable envelope.
func SpeechLike(d time.Duration, sampleRate int) *wav.Clip {
	n := int(d.Seconds() * float64(sampleRate))
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		base := 200.0 + float64(int(t*10)%5)*50

		v := math.Sin(2 * math.Pi * base * t)
		v += 0.5 * math.Sin(2*math.Pi*base*2*t)
		v += 0.25 * math.Sin(2*math.Pi*base*3*t)
		v *= 0.5 + 0.5*math.Sin(2*math.Pi*4*t)

		samples[i] = int16(v * 8000)
	}
	return &wav.Clip{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "---"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

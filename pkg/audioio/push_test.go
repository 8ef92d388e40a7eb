package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestPushSource_DropsWhenStopped(t *testing.T) {
	src := NewPushSource(DefaultConfig(), nil)
	if src.Push(AudioChunk{Samples: []int16{1, 2}}) {
		t.Error("push accepted before Start")
	}
}

func TestPushSource_ConvertsFormat(t *testing.T) {
	src := NewPushSource(DefaultConfig(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	src.Start(ctx)

	// 10 ms of 48 kHz stereo.
	src.Push(AudioChunk{Samples: make([]int16, 960), SampleRate: 48000, Channels: 2})

	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if chunk.SampleRate != 16000 || chunk.Channels != 1 {
		t.Errorf("format = %d Hz x%d", chunk.SampleRate, chunk.Channels)
	}
	if len(chunk.Samples) != 160 {
		t.Errorf("got %d samples, want 160", len(chunk.Samples))
	}
}

func TestPushSource_ReadDrainsThenEOF(t *testing.T) {
	src := NewPushSource(DefaultConfig(), nil)
	ctx := context.Background()
	src.Start(ctx)
	src.Push(AudioChunk{Samples: []int16{1}, SampleRate: 16000, Channels: 1})
	src.Stop()

	if _, err := src.Read(ctx); err != nil {
		t.Fatalf("buffered chunk lost: %v", err)
	}
	if _, err := src.Read(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Read = %v, want io.EOF", err)
	}
}

func TestPushSource_ContextCancelStops(t *testing.T) {
	src := NewPushSource(DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	src.Start(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for src.Stats().Running {
		if time.Now().After(deadline) {
			t.Fatal("source still running after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPushSource_Overrun(t *testing.T) {
	src := NewPushSource(DefaultConfig(), nil)
	src.Start(context.Background())
	defer src.Close()

	accepted := 0
	for i := 0; i < 300; i++ {
		if src.Push(AudioChunk{Samples: []int16{1}, SampleRate: 16000, Channels: 1}) {
			accepted++
		}
	}
	stats := src.Stats()
	if accepted != 256 || stats.Overruns != 44 {
		t.Errorf("accepted %d, overruns %d", accepted, stats.Overruns)
	}
}

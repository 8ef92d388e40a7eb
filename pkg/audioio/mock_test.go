package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock
	cfg.BufferDuration = 10 * time.Millisecond
	return cfg
}

func TestMockSource_StartStop(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	defer src.Close()

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Starting again is a no-op.
	if err := src.Start(ctx); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestMockSource_Read(t *testing.T) {
	cfg := testConfig()
	src := NewMockSource(cfg, nil)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if want := cfg.BufferSize() * cfg.Channels; len(chunk.Samples) != want {
		t.Errorf("got %d samples, want %d", len(chunk.Samples), want)
	}
	if chunk.SampleRate != cfg.SampleRate {
		t.Errorf("got sample rate %d, want %d", chunk.SampleRate, cfg.SampleRate)
	}
	if chunk.Duration() != cfg.BufferDuration {
		t.Errorf("got duration %v, want %v", chunk.Duration(), cfg.BufferDuration)
	}
}

func TestMockSource_ReadAfterStopReturnsEOF(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	src.Stop()

	for {
		_, err := src.Read(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("expected io.EOF, got %v", err)
		}
	}
}

func TestMockSource_Restart(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := src.Start(ctx); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
		if _, err := src.Read(ctx); err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		src.Stop()
	}
}

func TestMockSource_SineWave(t *testing.T) {
	src := NewMockSource(testConfig(), nil, WithSineWave(440, 0.5))
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if lvl := Level(chunk.Samples); lvl < 0.2 || lvl > 0.5 {
		t.Errorf("sine level = %.3f, want about 0.35", lvl)
	}
}

func TestMockSource_CloseRejectsStart(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	src.Close()

	if err := src.Start(context.Background()); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Start after Close = %v, want io.ErrClosedPipe", err)
	}
}

func TestMockSink_WriteAndClear(t *testing.T) {
	sink := NewMockSink(testConfig(), nil)
	defer sink.Close()

	ctx := context.Background()
	if err := sink.Write(ctx, AudioChunk{Samples: make([]int16, 10)}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Write before Start = %v, want io.ErrClosedPipe", err)
	}

	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := sink.Write(ctx, AudioChunk{Samples: make([]int16, 160), SampleRate: 16000, Channels: 1}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if got := sink.Buffered(); got != 480 {
		t.Errorf("Buffered = %d, want 480", got)
	}

	if err := sink.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got := sink.Buffered(); got != 0 {
		t.Errorf("Buffered after Clear = %d, want 0", got)
	}

	stats := sink.Stats()
	if stats.ChunksWritten != 3 || stats.SamplesWritten != 480 || stats.Clears != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Backend != "mock" {
		t.Errorf("Backend = %q, want mock", stats.Backend)
	}
}

func TestNewSource_Backends(t *testing.T) {
	tests := []struct {
		backend Backend
		name    string
		wantErr bool
	}{
		{BackendMock, "mock", false},
		{BackendRemote, "remote", false},
		{Backend("nope"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			cfg := testConfig()
			cfg.Backend = tt.backend
			src, err := NewSource(cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSource: %v", err)
			}
			defer src.Close()
			if src.Name() != tt.name {
				t.Errorf("Name = %q, want %q", src.Name(), tt.name)
			}
		})
	}
}

func TestNewSink_RemoteHasNoLocalSink(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = BackendRemote
	if _, err := NewSink(cfg, nil); err == nil {
		t.Fatal("expected error for remote sink")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"zero channels", func(c *Config) { c.Channels = 0 }, true},
		{"zero buffer", func(c *Config) { c.BufferDuration = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_BufferSize(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.BufferSize(); got != 320 {
		t.Errorf("BufferSize = %d, want 320", got)
	}
	if got := cfg.BufferBytes(); got != 640 {
		t.Errorf("BufferBytes = %d, want 640", got)
	}
}

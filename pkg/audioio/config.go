// Package audioio provides microphone capture and speaker playback.
//
// Backends:
//   - alsa: arecord/aplay subprocesses (Linux)
//   - coreaudio: sox rec/play subprocesses (macOS)
//   - remote: audio pushed in by a headset over the control channel
//   - mock: synthetic audio for tests and offline runs
//
// The backend is selected from configuration, with "auto" picking the
// platform default.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects alsa on Linux, coreaudio on macOS, mock elsewhere.
	BackendAuto Backend = "auto"
	// BackendALSA shells out to arecord/aplay.
	BackendALSA Backend = "alsa"
	// BackendCoreAudio shells out to sox rec/play.
	BackendCoreAudio Backend = "coreaudio"
	// BackendRemote receives audio from a connected headset.
	BackendRemote Backend = "remote"
	// BackendMock generates or discards audio in memory.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	// Default: 16000 (what speech recognizers expect)
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels.
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the size of each captured chunk.
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Device is the platform-specific device identifier.
	//   - alsa: "default", "plughw:1,0"
	//   - coreaudio: passed to sox via AUDIODEV, empty for default
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns a Config with sensible defaults for capture.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of sample frames per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a buffer in bytes (int16 samples).
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}

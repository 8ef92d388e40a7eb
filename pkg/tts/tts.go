// Package tts turns reply text into speech.
//
// Every backend returns mono 16-bit little-endian PCM so the result can be
// handed straight to an audio sink or wrapped in a WAV for a headset.
//
//	provider, _ := tts.NewOpenAI(tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	speaker := tts.NewBounded(provider, 10*time.Second)
//	result, err := speaker.Synthesize(ctx, "Try a table-driven test.")
package tts

import (
	"context"
	"encoding/binary"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to a complete PCM16 buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is one synthesized utterance.
type AudioResult struct {
	// Audio is little-endian PCM16.
	Audio []byte

	Format AudioFormat

	// Duration is the playback length.
	Duration time.Duration

	CharCount int

	// LatencyMs is the time until the audio was fully received.
	LatencyMs int64
}

// Empty reports whether the result has no playable audio.
func (r *AudioResult) Empty() bool {
	return r == nil || len(r.Audio) < 2
}

// Samples decodes Audio into int16 samples.
func (r *AudioResult) Samples() []int16 {
	samples := make([]int16, len(r.Audio)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(r.Audio[i*2:]))
	}
	return samples
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// PCMFormat returns the mono PCM16 format at rate.
func PCMFormat(rate int) AudioFormat {
	return AudioFormat{
		Encoding:   EncodingFromSampleRate(rate),
		SampleRate: rate,
		Channels:   1,
		BitDepth:   16,
	}
}

// Encoding names a PCM output format. The values match ElevenLabs'
// output_format parameter.
type Encoding string

const (
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM22 Encoding = "pcm_22050"
	EncodingPCM24 Encoding = "pcm_24000"
	EncodingPCM44 Encoding = "pcm_44100"
)

// SampleRateFromEncoding extracts the sample rate from an encoding.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM44:
		return 44100
	default:
		return 24000
	}
}

// EncodingFromSampleRate is the inverse of SampleRateFromEncoding.
func EncodingFromSampleRate(rate int) Encoding {
	switch rate {
	case 16000:
		return EncodingPCM16
	case 22050:
		return EncodingPCM22
	case 44100:
		return EncodingPCM44
	default:
		return EncodingPCM24
	}
}

// PCMDuration returns the playback length of n bytes of PCM16.
func PCMDuration(n int, f AudioFormat) time.Duration {
	channels := f.Channels
	if channels == 0 {
		channels = 1
	}
	if f.SampleRate == 0 {
		return 0
	}
	frames := n / 2 / channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

func newResult(audio []byte, format AudioFormat, text string, start time.Time) *AudioResult {
	return &AudioResult{
		Audio:     audio,
		Format:    format,
		Duration:  PCMDuration(len(audio), format),
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

// VoiceSettings controls ElevenLabs voice characteristics.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0).
	Style float64

	SpeakerBoost bool
}

// DefaultVoiceSettings returns a calm, consistent delivery.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.6,
		SimilarityBoost: 0.75,
		SpeakerBoost:    true,
	}
}

package audioio

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is 120 ms at 48 kHz, the longest frame Opus allows.
const maxOpusFrame = 5760

// OpusDecoder turns Opus packets from a headset microphone into PCM16 chunks.
type OpusDecoder struct {
	dec        *opus.Decoder
	sampleRate int
	channels   int
	pcm        []int16
}

// NewOpusDecoder creates a decoder. Opus supports 8, 12, 16, 24 and 48 kHz.
func NewOpusDecoder(sampleRate, channels int) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opus decoder: %w", err)
	}
	return &OpusDecoder{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
		pcm:        make([]int16, maxOpusFrame*channels),
	}, nil
}

// Decode decodes one packet.
func (d *OpusDecoder) Decode(packet []byte) (AudioChunk, error) {
	n, err := d.dec.Decode(packet, d.pcm)
	if err != nil {
		return AudioChunk{}, fmt.Errorf("opus decode: %w", err)
	}
	samples := make([]int16, n*d.channels)
	copy(samples, d.pcm[:n*d.channels])
	return AudioChunk{
		Samples:    samples,
		SampleRate: d.sampleRate,
		Channels:   d.channels,
	}, nil
}

// SampleRate returns the decoder's output rate.
func (d *OpusDecoder) SampleRate() int {
	return d.sampleRate
}

// Channels returns the decoder's channel count.
func (d *OpusDecoder) Channels() int {
	return d.channels
}

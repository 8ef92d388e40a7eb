package audioio

import (
	"math"
	"testing"

	"gopkg.in/hraban/opus.v2"
)

func TestOpusDecoder(t *testing.T) {
	const rate = 16000
	frame := make([]int16, rate/50) // 20 ms
	for i := range frame {
		frame[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}

	enc, err := opus.NewEncoder(rate, 1, opus.AppVoIP)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	packet := make([]byte, 1000)
	n, err := enc.Encode(frame, packet)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec, err := NewOpusDecoder(rate, 1)
	if err != nil {
		t.Fatalf("NewOpusDecoder: %v", err)
	}
	chunk, err := dec.Decode(packet[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(chunk.Samples) != len(frame) {
		t.Errorf("decoded %d samples, want %d", len(chunk.Samples), len(frame))
	}
	if chunk.SampleRate != rate || chunk.Channels != 1 {
		t.Errorf("chunk format = %d Hz x %d", chunk.SampleRate, chunk.Channels)
	}
	if dec.SampleRate() != rate || dec.Channels() != 1 {
		t.Errorf("decoder format = %d Hz x %d", dec.SampleRate(), dec.Channels())
	}
}

func TestOpusDecoderErrors(t *testing.T) {
	if _, err := NewOpusDecoder(44100, 1); err == nil {
		t.Error("expected error for unsupported rate")
	}

	dec, err := NewOpusDecoder(16000, 1)
	if err != nil {
		t.Fatalf("NewOpusDecoder: %v", err)
	}
	if _, err := dec.Decode(nil); err == nil {
		t.Error("expected error for empty packet")
	}
}

package wav

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

func sine(n, rate int, freq, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestEncodeHeader(t *testing.T) {
	samples := make([]int16, 100)
	data := Encode(samples, 16000, 1)

	if len(data) != HeaderSize+200 {
		t.Fatalf("len = %d, want %d", len(data), HeaderSize+200)
	}

	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(data[4:8]), 236},
		{"fmt size", binary.LittleEndian.Uint32(data[16:20]), 16},
		{"format", uint32(binary.LittleEndian.Uint16(data[20:22])), 1},
		{"channels", uint32(binary.LittleEndian.Uint16(data[22:24])), 1},
		{"sample rate", binary.LittleEndian.Uint32(data[24:28]), 16000},
		{"byte rate", binary.LittleEndian.Uint32(data[28:32]), 32000},
		{"block align", uint32(binary.LittleEndian.Uint16(data[32:34])), 2},
		{"bits", uint32(binary.LittleEndian.Uint16(data[34:36])), 16},
		{"data size", binary.LittleEndian.Uint32(data[40:44]), 200},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Error("missing chunk identifiers")
	}
}

func TestSineRoundTrip(t *testing.T) {
	const rate = 16000
	in := sine(rate/2, rate, 440, 0.8)

	clip, err := Decode(EncodeFloat(in, rate, 1))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(clip.Samples) != len(in) {
		t.Fatalf("sample count = %d, want %d", len(clip.Samples), len(in))
	}
	if clip.SampleRate != rate || clip.Channels != 1 {
		t.Errorf("format = %d Hz x%d", clip.SampleRate, clip.Channels)
	}

	const quantum = 1.0 / 32767
	for i, want := range in {
		got := float64(clip.Samples[i]) / 32767
		if math.Abs(got-float64(want)) > quantum {
			t.Fatalf("sample %d: got %f, want %f", i, got, want)
		}
	}

	if d := clip.Duration(); d != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", d)
	}
}

func TestEncodeFloatClamps(t *testing.T) {
	got := FloatToPCM16([]float32{2, -3, 0.5})
	want := []int16{32767, -32767, 16383}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStereoRoundTrip(t *testing.T) {
	samples := []int16{1, -1, 1000, -1000, 32767, -32768}
	clip, err := Decode(Encode(samples, 24000, 2))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if clip.Frames() != 3 {
		t.Errorf("Frames = %d, want 3", clip.Frames())
	}
	for i := range samples {
		if clip.Samples[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, clip.Samples[i], samples[i])
		}
	}
}

func TestDecodeSkipsExtraChunks(t *testing.T) {
	base := Encode([]int16{10, 20, 30}, 24000, 1)

	// Insert a LIST chunk (odd length, padded) between fmt and data.
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	data := append([]byte{}, base[:36]...)
	data = append(data, list...)
	data = append(data, base[36:]...)

	clip, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(clip.Samples) != 3 || clip.Samples[2] != 30 {
		t.Errorf("unexpected samples %v", clip.Samples)
	}
}

func TestDecodeErrors(t *testing.T) {
	float32WAV := Encode([]int16{1, 2}, 16000, 1)
	binary.LittleEndian.PutUint16(float32WAV[20:22], 3)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidHeader},
		{"not riff", []byte("RIFX0000WAVEfmt "), ErrInvalidHeader},
		{"float format", float32WAV, ErrUnsupportedFormat},
		{"no data", Encode(nil, 16000, 1)[:36], ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

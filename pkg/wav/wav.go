// Package wav encodes and decodes PCM16 WAV containers.
//
// Encoded files always use the canonical 44-byte header. Decode also
// accepts files carrying extra chunks (LIST, fact) before the data chunk,
// which some synthesis backends emit.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// HeaderSize is the size of the canonical RIFF/WAVE header written by Encode.
const HeaderSize = 44

const (
	formatPCM     = 1
	bitsPerSample = 16
)

var (
	// ErrInvalidHeader is returned when the RIFF/WAVE framing is missing or truncated.
	ErrInvalidHeader = errors.New("wav: invalid header")

	// ErrUnsupportedFormat is returned for anything other than 16-bit PCM.
	ErrUnsupportedFormat = errors.New("wav: unsupported format")

	// ErrNoData is returned when no data chunk follows the fmt chunk.
	ErrNoData = errors.New("wav: missing data chunk")
)

// Clip is decoded PCM16 audio.
type Clip struct {
	// Samples are interleaved when Channels > 1.
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Bytes returns the samples as little-endian PCM16 without a header.
func (c *Clip) Bytes() []byte {
	out := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Encode wraps PCM16 samples in a 44-byte WAV header.
func Encode(samples []int16, sampleRate, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}
	dataLen := len(samples) * 2
	buf := make([]byte, HeaderSize+dataLen)
	writeHeader(buf, dataLen, sampleRate, channels)

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[HeaderSize+i*2:], uint16(s))
	}
	return buf
}

// EncodeFloat converts float samples in [-1, 1] to PCM16 and encodes them.
// Values outside the range are clamped.
func EncodeFloat(samples []float32, sampleRate, channels int) []byte {
	return Encode(FloatToPCM16(samples), sampleRate, channels)
}

// FloatToPCM16 clamps to [-1, 1] and scales by 32767.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, f := range samples {
		v := math.Max(-1, math.Min(1, float64(f)))
		out[i] = int16(v * 32767)
	}
	return out
}

func writeHeader(buf []byte, dataLen, sampleRate, channels int) {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(dataLen+36))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
}

// Decode parses a PCM16 WAV file.
func Decode(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrInvalidHeader
	}

	var (
		clip    Clip
		haveFmt bool
		pos     = 12
	)

	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, ErrInvalidHeader
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != formatPCM || bits != bitsPerSample {
				return nil, fmt.Errorf("%w: format=%d bits=%d", ErrUnsupportedFormat, format, bits)
			}
			clip.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, ErrInvalidHeader
			}
			end := body + size
			// Streaming writers sometimes leave the size at 0 or 0xFFFFFFFF.
			if size == 0 || end > len(data) || end < body {
				end = len(data)
			}
			raw := data[body:end]
			clip.Samples = make([]int16, len(raw)/2)
			for i := range clip.Samples {
				clip.Samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
			}
			return &clip, nil
		}

		// Chunks are word aligned.
		pos = body + size + size%2
	}

	if !haveFmt {
		return nil, ErrInvalidHeader
	}
	return nil, ErrNoData
}

// IsWAV reports whether data starts with a RIFF/WAVE signature.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/teslashibe/go-ducky/pkg/audioio"
	"github.com/teslashibe/go-ducky/pkg/chat"
	"github.com/teslashibe/go-ducky/pkg/stt"
	"github.com/teslashibe/go-ducky/pkg/tts"
	"github.com/teslashibe/go-ducky/pkg/wav"
)

// ErrNoAudio is returned when a stage has no audio to work with: nothing
// was captured, or synthesis produced an empty buffer.
var ErrNoAudio = errors.New("session: no audio")

// FailureKind classifies why a cycle ended early.
type FailureKind int

const (
	NetworkFailure FailureKind = iota + 1
	ParseFailure
	DeviceFailure
	CancellationRequested
)

// String returns the wire name of the kind.
func (k FailureKind) String() string {
	switch k {
	case NetworkFailure:
		return "network"
	case ParseFailure:
		return "parse"
	case DeviceFailure:
		return "device"
	case CancellationRequested:
		return "cancelled"
	}
	return "unknown"
}

// Stage names the part of the cycle that failed.
type Stage string

const (
	StageCapture    Stage = "capture"
	StageTranscribe Stage = "transcribe"
	StageChat       Stage = "chat"
	StageSpeak      Stage = "speak"
)

// Failure is a soft failure: the controller returns to Idle and keeps
// its history.
type Failure struct {
	Kind  FailureKind
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("session: %s failed (%s): %v", f.Stage, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure classifies err and attaches the stage.
func NewFailure(stage Stage, err error) *Failure {
	return &Failure{Kind: Classify(err), Stage: stage, Err: err}
}

// Classify maps an error from any stage to a FailureKind. Unrecognized
// errors count as network failures.
func Classify(err error) FailureKind {
	var (
		f         *Failure
		chatAPI   *chat.APIError
		sttAPI    *stt.APIError
		ttsAPI    *tts.APIError
		chatParse *chat.ParseError
		sttParse  *stt.ParseError
		netErr    net.Error
		urlErr    *url.Error
	)

	switch {
	case errors.As(err, &f):
		return f.Kind
	case errors.Is(err, context.Canceled):
		return CancellationRequested
	case errors.Is(err, ErrNoAudio), errors.Is(err, audioio.ErrNoDevice):
		return DeviceFailure
	case errors.As(err, &chatParse), errors.As(err, &sttParse),
		errors.Is(err, wav.ErrInvalidHeader), errors.Is(err, wav.ErrUnsupportedFormat), errors.Is(err, wav.ErrNoData):
		return ParseFailure
	case errors.As(err, &chatAPI), errors.As(err, &sttAPI), errors.As(err, &ttsAPI),
		errors.As(err, &netErr), errors.As(err, &urlErr), errors.Is(err, tts.ErrTimeout):
		return NetworkFailure
	}
	return NetworkFailure
}

package protocol

import (
	"encoding/base64"
	"time"
)

// NewMicMessage creates a PCM16 microphone message
func NewMicMessage(pcmData []byte, sampleRate int) (*Message, error) {
	return NewMessage(TypeMic, MicData{
		Format:     FormatPCM16,
		SampleRate: sampleRate,
		Channels:   1,
		Data:       base64.StdEncoding.EncodeToString(pcmData),
	})
}

// NewSpeakMessage creates a speak message carrying a WAV file
func NewSpeakMessage(wavData []byte, sampleRate, channels int, duration time.Duration) (*Message, error) {
	return NewMessage(TypeSpeak, SpeakData{
		Format:     FormatWAV,
		SampleRate: sampleRate,
		Channels:   channels,
		DurationMs: duration.Milliseconds(),
		Data:       base64.StdEncoding.EncodeToString(wavData),
	})
}

// NewStopMessage tells a headset to drop queued playback
func NewStopMessage() (*Message, error) {
	return NewMessage(TypeStop, nil)
}

// NewStateMessage creates a state change event
func NewStateMessage(from, to, cycle string) (*Message, error) {
	return NewMessage(TypeState, StateData{State: to, From: from, Cycle: cycle})
}

// NewTranscriptMessage creates a transcript event
func NewTranscriptMessage(text string, final bool) (*Message, error) {
	return NewMessage(TypeTranscript, TranscriptData{Text: text, Final: final})
}

// NewTokenMessage creates a token event
func NewTokenMessage(token string) (*Message, error) {
	return NewMessage(TypeToken, TokenData{Token: token})
}

// NewReplyMessage creates a reply event
func NewReplyMessage(text string) (*Message, error) {
	return NewMessage(TypeReply, ReplyData{Text: text})
}

// NewErrorMessage creates an error event
func NewErrorMessage(kind, stage, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Kind: kind, Stage: stage, Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: time.Now().UnixMilli()})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// GetMicData extracts mic data from a message
func (m *Message) GetMicData() (*MicData, error) {
	var data MicData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeMicData decodes the base64 audio data
func (mic *MicData) DecodeMicData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(mic.Data)
}

// GetSpeakData extracts speak data from a message
func (m *Message) GetSpeakData() (*SpeakData, error) {
	var data SpeakData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeSpeakData decodes the base64 audio data
func (s *SpeakData) DecodeSpeakData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(s.Data)
}

// GetStateData extracts state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

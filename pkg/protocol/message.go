// Package protocol defines the websocket messages exchanged with headset
// clients and dashboard viewers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of websocket message
type MessageType string

const (
	// Headset → server
	TypePTTStart MessageType = "ptt_start" // Talk control pressed
	TypePTTStop  MessageType = "ptt_stop"  // Talk control released
	TypeCancel   MessageType = "cancel"    // Abort the current cycle
	TypeMic      MessageType = "mic"       // Microphone audio

	// Server → headset
	TypeSpeak MessageType = "speak" // Reply audio to play
	TypeStop  MessageType = "stop"  // Drop any queued playback

	// Server → viewers
	TypeState      MessageType = "state"      // Session state change
	TypeTranscript MessageType = "transcript" // Partial or final transcript
	TypeToken      MessageType = "token"      // Streamed reply token
	TypeReply      MessageType = "reply"      // Complete reply
	TypeError      MessageType = "error"      // Soft failure

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all websocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into v
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// Audio formats carried in MicData and SpeakData.
const (
	FormatPCM16 = "pcm16"
	FormatOpus  = "opus"
	FormatWAV   = "wav"
)

// MicData contains microphone audio
type MicData struct {
	Format     string `json:"format"`      // "pcm16", "opus"
	SampleRate int    `json:"sample_rate"` // e.g., 16000
	Channels   int    `json:"channels"`    // 1 for mono
	Data       string `json:"data"`        // base64 encoded
}

// SpeakData contains reply audio to play
type SpeakData struct {
	Format     string `json:"format"` // "wav"
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	DurationMs int64  `json:"duration_ms"`
	Data       string `json:"data"` // base64 encoded
}

// StateData reports a session state change
type StateData struct {
	State string `json:"state"`
	From  string `json:"from,omitempty"`
	Cycle string `json:"cycle,omitempty"`
}

// TranscriptData contains recognized speech
type TranscriptData struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// TokenData contains one streamed reply token
type TokenData struct {
	Token string `json:"token"`
}

// ReplyData contains the complete reply
type ReplyData struct {
	Text string `json:"text"`
}

// ErrorData describes a soft failure
type ErrorData struct {
	Kind    string `json:"kind"`  // "network", "parse", "device", "cancelled"
	Stage   string `json:"stage"` // "capture", "transcribe", "chat", "speak"
	Message string `json:"message"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

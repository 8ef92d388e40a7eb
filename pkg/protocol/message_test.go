package protocol

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
		wantErr bool
	}{
		{
			name:    "mic message",
			msgType: TypeMic,
			data:    MicData{Format: FormatPCM16, SampleRate: 16000, Channels: 1},
		},
		{
			name:    "state event",
			msgType: TypeState,
			data:    StateData{State: "listening", From: "idle"},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeReply,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
			if tt.data == nil && msg.Data != nil {
				t.Errorf("Data = %s, want nil", msg.Data)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewTranscriptMessage("how do I reverse a slice", true)
	if err != nil {
		t.Fatalf("NewTranscriptMessage() error = %v", err)
	}

	b, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(b)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeTranscript {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeTranscript)
	}
	if parsed.Timestamp != msg.Timestamp {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}

	var data TranscriptData
	if err := parsed.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if data.Text != "how do I reverse a slice" || !data.Final {
		t.Errorf("data = %+v", data)
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MessageType
		wantErr bool
	}{
		{name: "ptt start", input: `{"type":"ptt_start"}`, want: TypePTTStart},
		{name: "ptt stop", input: `{"type":"ptt_stop","ts":1}`, want: TypePTTStop},
		{name: "cancel", input: `{"type":"cancel"}`, want: TypeCancel},
		{name: "mic", input: `{"type":"mic","data":{"format":"opus"}}`, want: TypeMic},
		{name: "invalid json", input: `{"type":`, wantErr: true},
		{name: "missing type", input: `{"data":{}}`, wantErr: true},
		{name: "not an object", input: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && msg.Type != tt.want {
				t.Errorf("Type = %v, want %v", msg.Type, tt.want)
			}
		})
	}
}

func TestParseDataNil(t *testing.T) {
	msg := &Message{Type: TypeStop}
	var data SpeakData
	if err := msg.ParseData(&data); err != nil {
		t.Errorf("ParseData() on empty data error = %v", err)
	}
}

func TestMicMessage(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xFF, 0x7F}

	msg, err := NewMicMessage(pcm, 16000)
	if err != nil {
		t.Fatalf("NewMicMessage() error = %v", err)
	}
	if msg.Type != TypeMic {
		t.Errorf("Type = %v, want %v", msg.Type, TypeMic)
	}

	mic, err := msg.GetMicData()
	if err != nil {
		t.Fatalf("GetMicData() error = %v", err)
	}
	if mic.Format != FormatPCM16 {
		t.Errorf("Format = %v, want %v", mic.Format, FormatPCM16)
	}
	if mic.SampleRate != 16000 || mic.Channels != 1 {
		t.Errorf("SampleRate/Channels = %d/%d, want 16000/1", mic.SampleRate, mic.Channels)
	}

	decoded, err := mic.DecodeMicData()
	if err != nil {
		t.Fatalf("DecodeMicData() error = %v", err)
	}
	if string(decoded) != string(pcm) {
		t.Errorf("decoded = %v, want %v", decoded, pcm)
	}
}

func TestMicDataBadBase64(t *testing.T) {
	mic := &MicData{Format: FormatPCM16, Data: "not base64!"}
	if _, err := mic.DecodeMicData(); err == nil {
		t.Error("DecodeMicData() should fail on invalid base64")
	}
}

func TestSpeakMessage(t *testing.T) {
	wavData := []byte("RIFF....WAVEfmt ")

	msg, err := NewSpeakMessage(wavData, 24000, 1, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSpeakMessage() error = %v", err)
	}
	if msg.Type != TypeSpeak {
		t.Errorf("Type = %v, want %v", msg.Type, TypeSpeak)
	}

	speak, err := msg.GetSpeakData()
	if err != nil {
		t.Fatalf("GetSpeakData() error = %v", err)
	}
	if speak.Format != FormatWAV {
		t.Errorf("Format = %v, want %v", speak.Format, FormatWAV)
	}
	if speak.DurationMs != 1500 {
		t.Errorf("DurationMs = %v, want 1500", speak.DurationMs)
	}
	if speak.Data != base64.StdEncoding.EncodeToString(wavData) {
		t.Errorf("Data = %v", speak.Data)
	}

	decoded, err := speak.DecodeSpeakData()
	if err != nil {
		t.Fatalf("DecodeSpeakData() error = %v", err)
	}
	if string(decoded) != string(wavData) {
		t.Errorf("decoded = %q, want %q", decoded, wavData)
	}
}

func TestStopMessage(t *testing.T) {
	msg, err := NewStopMessage()
	if err != nil {
		t.Fatalf("NewStopMessage() error = %v", err)
	}
	b, _ := msg.Bytes()

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["type"] != "stop" {
		t.Errorf("type = %v, want stop", raw["type"])
	}
	if _, ok := raw["data"]; ok {
		t.Error("stop message should omit data")
	}
}

func TestEventMessages(t *testing.T) {
	t.Run("state", func(t *testing.T) {
		msg, err := NewStateMessage("idle", "listening", "abc")
		if err != nil {
			t.Fatalf("NewStateMessage() error = %v", err)
		}
		data, err := msg.GetStateData()
		if err != nil {
			t.Fatalf("GetStateData() error = %v", err)
		}
		if data.From != "idle" || data.State != "listening" || data.Cycle != "abc" {
			t.Errorf("data = %+v", data)
		}
	})

	t.Run("token", func(t *testing.T) {
		msg, err := NewTokenMessage("Hel")
		if err != nil {
			t.Fatalf("NewTokenMessage() error = %v", err)
		}
		var data TokenData
		if err := msg.ParseData(&data); err != nil {
			t.Fatalf("ParseData() error = %v", err)
		}
		if data.Token != "Hel" {
			t.Errorf("Token = %q, want Hel", data.Token)
		}
	})

	t.Run("reply", func(t *testing.T) {
		msg, err := NewReplyMessage("Use slices.Reverse.")
		if err != nil {
			t.Fatalf("NewReplyMessage() error = %v", err)
		}
		var data ReplyData
		if err := msg.ParseData(&data); err != nil {
			t.Fatalf("ParseData() error = %v", err)
		}
		if data.Text != "Use slices.Reverse." {
			t.Errorf("Text = %q", data.Text)
		}
	})

	t.Run("error", func(t *testing.T) {
		msg, err := NewErrorMessage("network", "chat", "connection refused")
		if err != nil {
			t.Fatalf("NewErrorMessage() error = %v", err)
		}
		data, err := msg.GetErrorData()
		if err != nil {
			t.Fatalf("GetErrorData() error = %v", err)
		}
		if data.Kind != "network" || data.Stage != "chat" || data.Message != "connection refused" {
			t.Errorf("data = %+v", data)
		}
	})
}

func TestPingPong(t *testing.T) {
	ping, err := NewPingMessage("p1")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}
	pingData, err := ping.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID != "p1" || pingData.Timestamp == 0 {
		t.Errorf("ping = %+v", pingData)
	}

	pong, err := NewPongMessage("p1", 1000, 1042)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	pongData, err := pong.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pongData.LatencyMs != 42 {
		t.Errorf("LatencyMs = %v, want 42", pongData.LatencyMs)
	}
}

package tts_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-ducky/pkg/tts"
	"github.com/teslashibe/go-ducky/pkg/wav"
)

func TestOpenAISynthesize(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write(pcm)
	}))
	defer srv.Close()

	p, err := tts.NewOpenAI(
		tts.WithAPIKey("sk-test"),
		tts.WithBaseURL(srv.URL),
		tts.WithSpeechRate(1.25),
	)
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	result, err := p.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(result.Audio) != string(pcm) {
		t.Errorf("Audio = %v", result.Audio)
	}
	if result.Format.SampleRate != 24000 {
		t.Errorf("SampleRate = %d", result.Format.SampleRate)
	}
	if got["response_format"] != "pcm" || got["input"] != "hello" || got["speed"] != 1.25 {
		t.Errorf("payload = %v", got)
	}
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		w.Write([]byte{0, 0})
	}))
	defer srv.Close()

	p, _ := tts.NewOpenAI(
		tts.WithAPIKey("k"),
		tts.WithBaseURL(srv.URL),
		tts.WithRetry(2, time.Millisecond),
	)
	if _, err := p.Synthesize(context.Background(), "retry"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestOpenAIUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	p, _ := tts.NewOpenAI(tts.WithAPIKey("k"), tts.WithBaseURL(srv.URL))
	_, err := p.Synthesize(context.Background(), "hi")

	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsUnauthorized() || apiErr.Message != "bad key" || apiErr.Code != "invalid_api_key" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestEmptyTextRejected(t *testing.T) {
	p, _ := tts.NewOpenAI(tts.WithAPIKey("k"), tts.WithBaseURL("http://127.0.0.1:1"))
	if _, err := p.Synthesize(context.Background(), "   "); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/21m00Tcm4TlvDq8ikWAM" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if f := r.URL.Query().Get("output_format"); f != "pcm_16000" {
			t.Errorf("output_format = %s", f)
		}
		if r.Header.Get("xi-api-key") != "xi" {
			t.Error("missing xi-api-key")
		}
		w.Write(make([]byte, 3200))
	}))
	defer srv.Close()

	p, err := tts.NewElevenLabs(
		tts.WithAPIKey("xi"),
		tts.WithBaseURL(srv.URL),
		tts.WithVoice("rachel"),
		tts.WithOutputFormat(tts.EncodingPCM16),
	)
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}

	result, err := p.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.Duration != 100*time.Millisecond {
		t.Errorf("Duration = %v", result.Duration)
	}
}

func TestElevenLabsErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":{"status":"voice_not_found","message":"no such voice"}}`))
	}))
	defer srv.Close()

	p, _ := tts.NewElevenLabs(tts.WithAPIKey("xi"), tts.WithBaseURL(srv.URL))
	_, err := p.Synthesize(context.Background(), "hello")

	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "no such voice" || apiErr.IsRetryable() {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestElevenLabsWSSynthesize(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var received []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/stream-input") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var msg struct {
				Text string `json:"text"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received = append(received, msg.Text)
			if msg.Text == "" {
				break
			}
		}

		for _, part := range [][]byte{{1, 0}, {2, 0}} {
			conn.WriteJSON(map[string]any{"audio": base64.StdEncoding.EncodeToString(part)})
		}
		conn.WriteJSON(map[string]any{"isFinal": true})
	}))
	defer srv.Close()

	p, err := tts.NewElevenLabsWS(
		tts.WithAPIKey("xi"),
		tts.WithBaseURL("ws"+strings.TrimPrefix(srv.URL, "http")),
	)
	if err != nil {
		t.Fatalf("NewElevenLabsWS: %v", err)
	}

	result, err := p.Synthesize(context.Background(), "hi there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(result.Audio) != string([]byte{1, 0, 2, 0}) {
		t.Errorf("Audio = %v", result.Audio)
	}
	if len(received) != 3 || received[1] != "hi there " {
		t.Errorf("received = %q", received)
	}
}

func TestGoogleSynthesize(t *testing.T) {
	body := wav.Encode([]int16{10, 20, 30}, 24000, 1)
	var got struct {
		Input struct {
			Text string `json:"text"`
		} `json:"input"`
		AudioConfig struct {
			AudioEncoding string  `json:"audioEncoding"`
			SpeakingRate  float64 `json:"speakingRate"`
		} `json:"audioConfig"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text:synthesize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(body),
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	p, err := tts.NewGoogle(ctx,
		tts.WithAPIKey("g"),
		tts.WithBaseURL(srv.URL+"/"),
		tts.WithSpeechRate(0.9),
	)
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}

	result, err := p.Synthesize(ctx, "quack")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	samples := result.Samples()
	if len(samples) != 3 || samples[2] != 30 {
		t.Errorf("Samples = %v", samples)
	}
	if got.Input.Text != "quack" || got.AudioConfig.AudioEncoding != "LINEAR16" || got.AudioConfig.SpeakingRate != 0.9 {
		t.Errorf("request = %+v", got)
	}
}

func TestGoogleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API not enabled"}}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	p, err := tts.NewGoogle(ctx, tts.WithAPIKey("g"), tts.WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}

	_, err = p.Synthesize(ctx, "quack")
	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 403 {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
}

package stt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-ducky/pkg/wav"
)

func TestGoogle_Transcribe(t *testing.T) {
	audio := wav.Encode(make([]int16, 1600), 16000, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "speech:recognize") {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req struct {
			Config struct {
				Encoding        string `json:"encoding"`
				SampleRateHertz int    `json:"sampleRateHertz"`
				LanguageCode    string `json:"languageCode"`
			} `json:"config"`
			Audio struct {
				Content string `json:"content"`
			} `json:"audio"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Config.Encoding != "LINEAR16" || req.Config.SampleRateHertz != 16000 || req.Config.LanguageCode != "en-US" {
			t.Errorf("config = %+v", req.Config)
		}
		if got, _ := base64.StdEncoding.DecodeString(req.Audio.Content); len(got) != len(audio) {
			t.Errorf("audio content is %d bytes, want %d", len(got), len(audio))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"what is a closure"}]},{"alternatives":[{"transcript":" in go"}]}]}`))
	}))
	defer srv.Close()

	g, err := NewGoogle(context.Background(), WithAPIKey("k"), WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}
	s, err := g.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	text, err := FinalTranscript(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("FinalTranscript: %v", err)
	}
	if text != "what is a closure in go" {
		t.Errorf("text = %q", text)
	}
}

func TestGoogle_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	g, err := NewGoogle(context.Background(), WithAPIKey("k"), WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}
	_, err = g.Transcribe(context.Background(), wav.Encode(make([]int16, 10), 16000, 1))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != 403 {
		t.Errorf("status = %d, want 403", apiErr.StatusCode)
	}
}

func TestGoogle_RejectsNonWAV(t *testing.T) {
	g, err := NewGoogle(context.Background(), WithAPIKey("k"), WithBaseURL("http://127.0.0.1:1/"))
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}
	var perr *ParseError
	if _, err := g.Transcribe(context.Background(), []byte("not a wav")); !errors.As(err, &perr) {
		t.Errorf("err = %v, want *ParseError", err)
	}
}

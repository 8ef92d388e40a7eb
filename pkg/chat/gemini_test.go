package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.0-flash:streamGenerateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" || r.URL.Query().Get("key") != "g-key" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}

		var payload struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if len(payload.Contents) != 2 || payload.Contents[1].Role != "model" {
			t.Errorf("contents = %+v", payload.Contents)
		}
		if len(payload.SystemInstruction.Parts) != 1 || payload.SystemInstruction.Parts[0].Text != "sys" {
			t.Errorf("systemInstruction = %+v", payload.SystemInstruction)
		}

		io.WriteString(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Slices \"}],\"role\":\"model\"}}]}\r\n\r\n")
		io.WriteString(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"grow.\"}],\"role\":\"model\"},\"finishReason\":\"STOP\"}]}\r\n\r\n")
	}))
	defer srv.Close()

	g, err := NewGemini(WithAPIKey("g-key"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	stream, err := g.Stream(context.Background(), &Request{Messages: []Message{
		NewSystemMessage("sys"),
		NewUserMessage("q"),
		NewAssistantMessage("a"),
	}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	reply, err := Collect(context.Background(), stream, nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if reply != "Slices grow." {
		t.Errorf("reply = %q", reply)
	}
}

func TestGeminiChat_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	g, _ := NewGemini(WithAPIKey("bad"), WithBaseURL(srv.URL))
	_, err := g.Chat(context.Background(), &Request{Messages: []Message{NewUserMessage("q")}})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "INVALID_ARGUMENT" || apiErr.StatusCode != 400 {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

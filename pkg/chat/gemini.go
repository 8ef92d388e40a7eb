package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/go-ducky/internal/httpc"
)

const providerGemini = "gemini"

// Gemini implements Provider for Google's Gemini API. It speaks its own
// request format rather than the OpenAI one.
type Gemini struct {
	apiKey string
	config *Config
	http   *http.Client
	stream *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	cfg.Model = "gemini-2.0-flash"
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Gemini{
		apiKey: cfg.APIKey,
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		stream: httpc.NewStreamingClient(cfg.HeaderTimeout),
		logger: cfg.Logger.With("component", "chat.gemini"),
	}, nil
}

// Name returns "gemini".
func (g *Gemini) Name() string {
	return providerGemini
}

// Chat generates a complete reply.
func (g *Gemini) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	model := g.model(req)

	resp, err := g.do(ctx, g.http, model, "generateContent", nil, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("read response: %w", err))
	}
	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ParseError{Provider: providerGemini, Data: truncate(string(body), 200), Err: err}
	}

	text, finish := result.text()
	if text == "" {
		return nil, WrapError(providerGemini, ErrEmptyResponse)
	}
	return &Response{
		Message:      NewAssistantMessage(text),
		FinishReason: finish,
		Usage: Usage{
			PromptTokens:     result.UsageMetadata.PromptTokenCount,
			CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      result.UsageMetadata.TotalTokenCount,
		},
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Stream returns the reply via streamGenerateContent in SSE mode.
func (g *Gemini) Stream(ctx context.Context, req *Request) (Stream, error) {
	resp, err := g.do(ctx, g.stream, g.model(req), "streamGenerateContent", url.Values{"alt": {"sse"}}, req)
	if err != nil {
		return nil, err
	}
	return &geminiStream{
		sse:    newSSEReader(resp.Body),
		body:   resp.Body,
		logger: g.logger,
	}, nil
}

// Health sends a one-token request.
func (g *Gemini) Health(ctx context.Context) error {
	_, err := g.Chat(ctx, &Request{
		Messages:  []Message{NewUserMessage("ping")},
		MaxTokens: 1,
	})
	return err
}

// Close releases resources.
func (g *Gemini) Close() error {
	g.http.CloseIdleConnections()
	g.stream.CloseIdleConnections()
	return nil
}

func (g *Gemini) model(req *Request) string {
	if req.Model != "" {
		return req.Model
	}
	return g.config.Model
}

func (g *Gemini) do(ctx context.Context, hc *http.Client, model, method string, query url.Values, req *Request) (*http.Response, error) {
	body, err := json.Marshal(g.buildPayload(req))
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", g.apiKey)
	u := fmt.Sprintf("%s/models/%s:%s?%s", g.config.BaseURL, model, method, query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, g.parseError(resp)
	}
	return resp, nil
}

// buildPayload maps the conversation to Gemini's format. System turns
// become the systemInstruction; assistant turns use the "model" role.
func (g *Gemini) buildPayload(req *Request) map[string]any {
	var system []string
	var contents []map[string]any

	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]string{{"text": msg.Content}},
		})
	}

	temp := req.Temperature
	if temp == 0 {
		temp = g.config.Temperature
	}
	genConfig := map[string]any{"temperature": temp}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}
	if maxTokens > 0 {
		genConfig["maxOutputTokens"] = maxTokens
	}
	if len(req.Stop) > 0 {
		genConfig["stopSequences"] = req.Stop
	}

	payload := map[string]any{
		"contents":         contents,
		"generationConfig": genConfig,
	}
	if len(system) > 0 {
		payload["systemInstruction"] = map[string]any{
			"parts": []map[string]string{{"text": strings.Join(system, "\n\n")}},
		}
	}
	return payload
}

// parseError reads and parses an error response.
func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Status
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerGemini,
	}
}

type geminiStream struct {
	sse    *sseReader
	body   io.ReadCloser
	logger *slog.Logger
	done   bool
}

func (s *geminiStream) Recv() (*StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		data, err := s.sse.Next()
		if err == io.EOF {
			s.done = true
			return &StreamChunk{Done: true}, nil
		}
		if err != nil {
			return nil, WrapError(providerGemini, fmt.Errorf("read stream: %w", err))
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}

		var event geminiResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			s.logger.Warn("skipping malformed stream frame",
				"error", &ParseError{Provider: providerGemini, Data: truncate(data, 200), Err: err})
			continue
		}
		if event.Error.Message != "" {
			return nil, &APIError{StatusCode: event.Error.Code, Message: event.Error.Message, Provider: providerGemini}
		}

		text, finish := event.text()
		if text == "" && finish == "" {
			continue
		}
		chunk := &StreamChunk{Delta: text, FinishReason: finish, Done: finish != ""}
		s.done = chunk.Done
		return chunk, nil
	}
}

func (s *geminiStream) Close() error {
	s.done = true
	return s.body.Close()
}

// geminiResponse is the Gemini response format, used for both whole
// replies and stream frames.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (r *geminiResponse) text() (string, string) {
	if len(r.Candidates) == 0 {
		return "", ""
	}
	c := r.Candidates[0]
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), c.FinishReason
}

// Verify Gemini implements Provider at compile time.
var _ Provider = (*Gemini)(nil)

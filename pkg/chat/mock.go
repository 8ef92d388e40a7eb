package chat

import (
	"context"
	"io"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// Tokens are streamed in order by Stream; Chat returns them joined.
	Tokens []string

	// Err is returned by Chat and Stream when set.
	Err error

	// TokenDelay is waited between tokens.
	TokenDelay time.Duration

	mu       sync.Mutex
	calls    []MockCall
	requests []*Request
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock that replies with the given tokens.
func NewMock(tokens ...string) *Mock {
	return &Mock{Tokens: tokens}
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Chat returns the joined tokens.
func (m *Mock) Chat(ctx context.Context, req *Request) (*Response, error) {
	m.record("Chat", req)
	if m.Err != nil {
		return nil, m.Err
	}
	var text string
	for _, t := range m.Tokens {
		text += t
	}
	return &Response{
		Message:      NewAssistantMessage(text),
		FinishReason: "stop",
		Model:        "mock",
	}, nil
}

// Stream returns the tokens one chunk at a time.
func (m *Mock) Stream(ctx context.Context, req *Request) (Stream, error) {
	m.record("Stream", req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &mockStream{ctx: ctx, tokens: m.Tokens, delay: m.TokenDelay}, nil
}

// Health always succeeds unless Err is set.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", nil)
	return m.Err
}

// Close records the call.
func (m *Mock) Close() error {
	m.record("Close", nil)
	return nil
}

func (m *Mock) record(method string, req *Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
	if req != nil {
		cp := *req
		cp.Messages = append([]Message(nil), req.Messages...)
		m.requests = append(m.requests, &cp)
	}
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastRequest returns a copy of the most recent Chat or Stream request.
func (m *Mock) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

type mockStream struct {
	ctx    context.Context
	tokens []string
	delay  time.Duration
	pos    int
	done   bool
}

func (s *mockStream) Recv() (*StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}
	if s.delay > 0 {
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.pos >= len(s.tokens) {
		s.done = true
		return &StreamChunk{FinishReason: "stop", Done: true}, nil
	}
	tok := s.tokens[s.pos]
	s.pos++
	return &StreamChunk{Delta: tok}, nil
}

func (s *mockStream) Close() error {
	s.done = true
	return nil
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)

// Package chat streams chat completions from LLM backends.
//
// Any OpenAI-compatible endpoint (Groq, OpenAI, Ollama, vLLM, llama.cpp)
// works through Client. Gemini has its own adapter. Both stream tokens
// over server-sent events.
//
//	client, _ := chat.NewClient(
//	    chat.WithBaseURL("https://api.groq.com/openai/v1"),
//	    chat.WithAPIKey(os.Getenv("LLM_API_KEY")),
//	)
//	stream, _ := client.Stream(ctx, &chat.Request{Messages: history})
//	reply, _ := chat.Collect(ctx, stream, func(tok string) { fmt.Print(tok) })
package chat

import "context"

// Provider is implemented by every chat backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Chat returns a complete, non-streamed reply.
	Chat(ctx context.Context, req *Request) (*Response, error)

	// Stream returns the reply as it is generated.
	Stream(ctx context.Context, req *Request) (Stream, error)

	// Health checks connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Stream is a streaming reply.
type Stream interface {
	// Recv returns the next chunk. The final chunk has Done set; calls
	// after that return io.EOF.
	Recv() (*StreamChunk, error)

	// Close aborts the stream and releases the connection.
	Close() error
}

// StreamChunk is a piece of a streaming reply.
type StreamChunk struct {
	// Delta is the incremental text.
	Delta string

	// FinishReason is set on the last content chunk (stop, length).
	FinishReason string

	// Done is true when the stream is complete.
	Done bool
}

// Request is a chat completion request.
type Request struct {
	Messages []Message

	// Model overrides the configured model.
	Model string

	// MaxTokens limits the reply. Zero uses the configured value, which
	// by default is unset.
	MaxTokens int

	// Temperature overrides the configured temperature when non-zero.
	Temperature float64

	Stop []string
}

// Response is a complete chat reply.
type Response struct {
	Message      Message
	FinishReason string
	Usage        Usage
	Model        string
	LatencyMs    int64
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

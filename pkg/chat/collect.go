package chat

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Collect reads s to the end and returns the concatenated reply. Each
// non-empty token is passed to onToken as it arrives. The stream is
// closed on return.
func Collect(ctx context.Context, s Stream, onToken func(string)) (string, error) {
	defer s.Close()

	var b strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return b.String(), err
		}
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return b.String(), ctxErr
			}
			return b.String(), err
		}
		if chunk.Delta != "" {
			b.WriteString(chunk.Delta)
			if onToken != nil {
				onToken(chunk.Delta)
			}
		}
		if chunk.Done {
			return b.String(), nil
		}
	}
}

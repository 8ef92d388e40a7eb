package tts

import (
	"context"
	"errors"
	"time"
)

// DefaultSynthesisTimeout bounds a single synthesis call.
const DefaultSynthesisTimeout = 10 * time.Second

// Bounded limits how long a provider may take to synthesize one reply.
type Bounded struct {
	Provider
	timeout time.Duration
}

// NewBounded wraps p. A non-positive timeout uses DefaultSynthesisTimeout.
func NewBounded(p Provider, timeout time.Duration) *Bounded {
	if timeout <= 0 {
		timeout = DefaultSynthesisTimeout
	}
	return &Bounded{Provider: p, timeout: timeout}
}

// Timeout returns the configured limit.
func (b *Bounded) Timeout() time.Duration {
	return b.timeout
}

// Synthesize returns ErrTimeout when the limit expires first. Cancellation
// of ctx itself is reported as ctx.Err().
func (b *Bounded) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	tctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type outcome struct {
		result *AudioResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := b.Provider.Synthesize(tctx, text)
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return o.result, o.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTimeout
	}
}

var _ Provider = (*Bounded)(nil)

package ducky

import (
	"strings"
	"sync"

	"github.com/teslashibe/go-ducky/pkg/session"
)

// Bubble is the duck's speech bubble: a single line of rich text showing
// the current state, the user's transcript, or the streaming reply.
//
// It is updated only from controller callbacks on the executor goroutine.
// Text may be read from anywhere.
type Bubble struct {
	session.NopObserver

	mu      sync.RWMutex
	text    string
	visible bool

	reply    strings.Builder
	onChange func(string)
}

// NewBubble creates a hidden, empty bubble.
func NewBubble() *Bubble {
	return &Bubble{}
}

// OnChange sets a callback invoked with the new text after every update.
func (b *Bubble) OnChange(fn func(string)) {
	b.onChange = fn
}

// ShowMessage displays text.
func (b *Bubble) ShowMessage(text string) {
	b.mu.Lock()
	b.text = text
	b.visible = true
	b.mu.Unlock()
	if b.onChange != nil {
		b.onChange(text)
	}
}

// SetState displays a status line in italics.
func (b *Bubble) SetState(state string) {
	b.ShowMessage("<i>" + state + "</i>")
}

// Clear empties and hides the bubble.
func (b *Bubble) Clear() {
	b.mu.Lock()
	b.text = ""
	b.visible = false
	b.mu.Unlock()
	b.reply.Reset()
	if b.onChange != nil {
		b.onChange("")
	}
}

// Text returns the current text.
func (b *Bubble) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Visible reports whether the bubble is shown.
func (b *Bubble) Visible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible
}

// OnState shows the stage name. Idle leaves the last message up.
func (b *Bubble) OnState(from, to session.State) {
	switch to {
	case session.Listening:
		b.reply.Reset()
		b.SetState("Listening...")
	case session.Transcribing:
		b.SetState("Transcribing...")
	case session.Thinking:
		b.SetState("Thinking...")
	}
}

// OnTranscript shows what the user said once it is final.
func (b *Bubble) OnTranscript(text string, final bool) {
	if final && text != "" {
		b.ShowMessage("<b>You:</b> " + text)
	}
}

// OnToken streams the reply into the bubble.
func (b *Bubble) OnToken(token string) {
	b.reply.WriteString(token)
	b.ShowMessage("<b>Ducky:</b> " + b.reply.String())
}

// OnReply shows the complete reply, which may differ from the streamed
// text by surrounding whitespace.
func (b *Bubble) OnReply(text string) {
	b.ShowMessage("<b>Ducky:</b> " + text)
}

var _ session.Observer = (*Bubble)(nil)

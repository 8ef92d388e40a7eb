package ducky

import (
	"testing"

	"github.com/teslashibe/go-ducky/pkg/session"
)

func TestBubbleCycle(t *testing.T) {
	b := NewBubble()
	var seen []string
	b.OnChange(func(s string) { seen = append(seen, s) })

	if b.Visible() {
		t.Error("new bubble should be hidden")
	}

	steps := []struct {
		name  string
		event func()
		want  string
	}{
		{"listening", func() { b.OnState(session.Idle, session.Listening) }, "<i>Listening...</i>"},
		{"transcribing", func() { b.OnState(session.Listening, session.Transcribing) }, "<i>Transcribing...</i>"},
		{"partial ignored", func() { b.OnTranscript("how do", false) }, "<i>Transcribing...</i>"},
		{"final transcript", func() { b.OnTranscript("how do I sort", true) }, "<b>You:</b> how do I sort"},
		{"thinking", func() { b.OnState(session.Transcribing, session.Thinking) }, "<i>Thinking...</i>"},
		{"first token", func() { b.OnToken("Use ") }, "<b>Ducky:</b> Use "},
		{"second token", func() { b.OnToken("sort.Slice") }, "<b>Ducky:</b> Use sort.Slice"},
		{"reply", func() { b.OnReply("Use sort.Slice") }, "<b>Ducky:</b> Use sort.Slice"},
		{"speaking keeps reply", func() { b.OnState(session.Thinking, session.Speaking) }, "<b>Ducky:</b> Use sort.Slice"},
		{"idle keeps reply", func() { b.OnState(session.Speaking, session.Idle) }, "<b>Ducky:</b> Use sort.Slice"},
	}
	for _, s := range steps {
		s.event()
		if got := b.Text(); got != s.want {
			t.Fatalf("%s: Text() = %q, want %q", s.name, got, s.want)
		}
	}

	if !b.Visible() {
		t.Error("bubble should be visible")
	}
	if len(seen) == 0 || seen[len(seen)-1] != "<b>Ducky:</b> Use sort.Slice" {
		t.Errorf("OnChange saw %v", seen)
	}
}

func TestBubbleNextCycleResetsReply(t *testing.T) {
	b := NewBubble()
	b.OnToken("old")
	b.OnState(session.Idle, session.Listening)
	b.OnToken("new")

	if got := b.Text(); got != "<b>Ducky:</b> new" {
		t.Errorf("Text() = %q", got)
	}
}

func TestBubbleClear(t *testing.T) {
	b := NewBubble()
	b.SetState("Listening...")
	b.Clear()

	if b.Text() != "" || b.Visible() {
		t.Errorf("after Clear: text %q visible %v", b.Text(), b.Visible())
	}
}

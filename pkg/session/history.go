package session

import (
	"sync"

	"github.com/teslashibe/go-ducky/pkg/chat"
)

// History is the conversation so far. It only grows: turns are appended
// and never removed, so Len is monotonic for the life of the session.
type History struct {
	mu        sync.RWMutex
	turns     []chat.Message
	listeners []func(chat.Message)
}

// NewHistory creates a history seeded with the system prompt, if any.
func NewHistory(systemPrompt string) *History {
	h := &History{}
	if systemPrompt != "" {
		h.turns = append(h.turns, chat.NewSystemMessage(systemPrompt))
	}
	return h
}

// Append adds a turn and notifies listeners.
func (h *History) Append(m chat.Message) {
	h.mu.Lock()
	h.turns = append(h.turns, m)
	listeners := h.listeners
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(m)
	}
}

// Restore appends previously saved turns without notifying listeners.
// System turns are skipped; the current prompt stays first.
func (h *History) Restore(turns []chat.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range turns {
		if m.Role == chat.RoleSystem {
			continue
		}
		h.turns = append(h.turns, m)
	}
}

// OnAppend registers fn to be called after every Append.
func (h *History) OnAppend(fn func(chat.Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Snapshot returns a copy of all turns.
func (h *History) Snapshot() []chat.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]chat.Message, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Last returns the most recent turn.
func (h *History) Last() (chat.Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.turns) == 0 {
		return chat.Message{}, false
	}
	return h.turns[len(h.turns)-1], true
}

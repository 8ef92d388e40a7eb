package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-ducky/pkg/chat"
)

// Entry is one saved turn.
type Entry struct {
	Role    chat.Role `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
	Session string    `json:"session"`
}

// journalFile is the on-disk layout.
type journalFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

const journalVersion = 1

// Journal records every conversation turn. Saves happen on a background
// goroutine so Record never waits on the disk; bursts of turns coalesce
// into one write.
type Journal struct {
	store   Store
	session string
	logger  *slog.Logger

	mu      sync.Mutex
	entries []Entry
	pending int

	// saveMu serializes encode and Save so files land in order.
	saveMu sync.Mutex

	dirty     chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewJournal opens a journal on store, loading any saved entries.
func NewJournal(store Store, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{
		store:   store,
		session: uuid.NewString(),
		logger:  logger.With("component", "memory.journal"),
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	data, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		var f journalFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("memory: parse journal: %w", err)
		}
		j.entries = f.Entries
	}

	go j.writeLoop()
	return j, nil
}

// Session returns the ID stamped on entries recorded by this process.
func (j *Journal) Session() string {
	return j.session
}

// Record appends a turn and schedules a save. It does not block on I/O.
// Save errors are logged, so a full disk never interrupts a conversation.
func (j *Journal) Record(m chat.Message) {
	j.mu.Lock()
	j.entries = append(j.entries, Entry{
		Role:    m.Role,
		Content: m.Content,
		At:      time.Now().UTC(),
		Session: j.session,
	})
	j.pending++
	j.mu.Unlock()

	select {
	case j.dirty <- struct{}{}:
	default:
	}
}

// Flush saves any unsaved turns before returning.
func (j *Journal) Flush() {
	j.save()
}

func (j *Journal) writeLoop() {
	defer close(j.stopped)
	for {
		select {
		case <-j.done:
			return
		case <-j.dirty:
			j.save()
		}
	}
}

func (j *Journal) save() {
	j.saveMu.Lock()
	defer j.saveMu.Unlock()

	j.mu.Lock()
	if j.pending == 0 {
		j.mu.Unlock()
		return
	}
	// Entries are never modified once appended, so the prefix is stable.
	entries := j.entries[:len(j.entries):len(j.entries)]
	j.pending = 0
	j.mu.Unlock()

	data, err := json.MarshalIndent(journalFile{Version: journalVersion, Entries: entries}, "", "  ")
	if err != nil {
		j.logger.Warn("encode journal", "error", err)
		return
	}
	if err := j.store.Save(data); err != nil {
		j.logger.Warn("save journal", "error", err)
	}
}

// Messages returns the saved turns, oldest first, without system turns.
func (j *Journal) Messages() []chat.Message {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]chat.Message, 0, len(j.entries))
	for _, e := range j.entries {
		if e.Role == chat.RoleSystem {
			continue
		}
		out = append(out, chat.Message{Role: e.Role, Content: e.Content})
	}
	return out
}

// Entries returns a copy of all entries.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry(nil), j.entries...)
}

// Close stops the writer, saves what is left and closes the store.
// Turns recorded after Close are not saved.
func (j *Journal) Close() error {
	var err error
	j.closeOnce.Do(func() {
		close(j.done)
		<-j.stopped
		j.save()
		err = j.store.Close()
	})
	return err
}

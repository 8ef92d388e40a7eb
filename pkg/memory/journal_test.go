package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-ducky/pkg/chat"
)

func TestJournalRecordsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.json")

	j, err := NewJournal(NewJSONStore(path), nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	j.Record(chat.NewSystemMessage("prompt"))
	j.Record(chat.NewUserMessage("what is a goroutine"))
	j.Record(chat.NewAssistantMessage("a lightweight thread"))
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("journal file not written: %v", err)
	}

	reopened, err := NewJournal(NewJSONStore(path), nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	msgs := reopened.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2 (system skipped)", len(msgs))
	}
	if msgs[0].Content != "what is a goroutine" || msgs[1].Role != chat.RoleAssistant {
		t.Errorf("unexpected messages %+v", msgs)
	}
	if reopened.Session() == j.Session() {
		t.Error("each journal should get a fresh session ID")
	}
	if entries := reopened.Entries(); entries[1].Session != j.Session() {
		t.Error("entries should keep their original session")
	}
}

func TestJournalFlush(t *testing.T) {
	store := &MemStore{}
	j, err := NewJournal(store, nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	defer j.Close()

	j.Record(chat.NewUserMessage("one"))
	j.Record(chat.NewAssistantMessage("two"))
	j.Flush()

	if n := store.Saves(); n < 1 || n > 2 {
		t.Errorf("saves = %d, want 1 or 2", n)
	}
	reopened, err := NewJournal(store, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := len(reopened.Messages()); got != 2 {
		t.Errorf("saved messages = %d, want 2", got)
	}
}

func TestJournalRecordDoesNotWaitForDisk(t *testing.T) {
	store := &MemStore{Delay: 100 * time.Millisecond}
	j, err := NewJournal(store, nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}

	start := time.Now()
	for i := 0; i < 50; i++ {
		j.Record(chat.NewUserMessage("turn"))
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("50 records took %s, should not wait on Save", elapsed)
	}

	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := store.Saves(); n >= 50 {
		t.Errorf("saves = %d, bursts should coalesce", n)
	}
	reopened, err := NewJournal(store, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := len(reopened.Entries()); got != 50 {
		t.Errorf("saved entries = %d, want 50", got)
	}
}

func TestJournalCloseTwice(t *testing.T) {
	j, err := NewJournal(&MemStore{}, nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestJournalRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJournal(NewJSONStore(path), nil); err == nil {
		t.Error("expected parse error")
	}
}

func TestJSONStoreEmptyPath(t *testing.T) {
	s := NewJSONStore("")
	if err := s.Save([]byte("x")); err != nil {
		t.Errorf("Save: %v", err)
	}
	data, err := s.Load()
	if err != nil || data != nil {
		t.Errorf("Load = %q, %v", data, err)
	}
}

func TestJSONStoreMissingFile(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))
	data, err := s.Load()
	if err != nil || data != nil {
		t.Errorf("Load = %q, %v", data, err)
	}
}

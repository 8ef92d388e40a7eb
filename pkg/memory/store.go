// Package memory persists the conversation between runs.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is a persistence backend for serialized journals.
type Store interface {
	// Save replaces the stored data.
	Save(data []byte) error

	// Load returns the stored data, or nil if nothing was saved yet.
	Load() ([]byte, error)

	Close() error
}

// JSONStore keeps the journal in one file. Writes go to a temporary file
// in the same directory and are renamed into place.
type JSONStore struct {
	FilePath string
}

// NewJSONStore creates a file store. An empty path disables persistence.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{FilePath: path}
}

// Save writes data to the file.
func (s *JSONStore) Save(data []byte) error {
	if s.FilePath == "" {
		return nil
	}

	dir := filepath.Dir(s.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.FilePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.FilePath); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// Load reads the file. A missing file is not an error.
func (s *JSONStore) Load() ([]byte, error) {
	if s.FilePath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Close is a no-op for files.
func (s *JSONStore) Close() error {
	return nil
}

// MemStore keeps data in memory. It is useful in tests.
type MemStore struct {
	// Delay is waited out inside every Save.
	Delay time.Duration

	mu    sync.Mutex
	data  []byte
	saves int
}

// Save stores a copy of data.
func (m *MemStore) Save(data []byte) error {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Load returns the last saved data.
func (m *MemStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, nil
}

// Saves returns how many times Save was called.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close is a no-op.
func (m *MemStore) Close() error {
	return nil
}

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*MemStore)(nil)
)

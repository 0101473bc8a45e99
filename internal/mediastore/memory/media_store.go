// Package memory stores media bytes in-memory for development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MediaStore stores uploads in-memory and returns pseudo URLs.
type MediaStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	failures int
}

// NewMediaStore creates a new in-memory media store.
func NewMediaStore() *MediaStore {
	return &MediaStore{
		data: make(map[string][]byte),
	}
}

// FailNext makes the next n Put calls fail with a transient error.
func (s *MediaStore) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

// Put persists the bytes and returns a mem:// URL.
func (s *MediaStore) Put(_ context.Context, name string, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return "", errors.New("transient push failure")
	}
	s.data[name] = append([]byte(nil), data...)
	return fmt.Sprintf("mem://%s", name), nil
}

// Object returns the stored bytes for a name.
func (s *MediaStore) Object(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[name]
	return b, ok
}

// Len reports how many objects are stored.
func (s *MediaStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

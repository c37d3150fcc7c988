package tokenstore

import (
	"sync"
	"time"

	"github.com/shweta76555/deskcli/internal/errs"
)

// MemStore is an in-memory Store for tests and embedding.
type MemStore struct {
	mu      sync.Mutex
	token   string
	has     bool
	modTime time.Time
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has {
		return "", errs.ErrNoSession
	}
	return s.token, nil
}

func (s *MemStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.has = token, true
	s.modTime = time.Now()
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.has = "", false
	s.modTime = time.Now()
	return nil
}

func (s *MemStore) Has() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.has && s.token != ""
}

func (s *MemStore) ModTime() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modTime, nil
}

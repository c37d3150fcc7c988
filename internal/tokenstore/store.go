// Package tokenstore persists the current bearer token in a single
// key-value slot. The store is the sole source of truth for "is a
// session present"; every consumer reads it fresh rather than caching
// the token, because another process may replace or clear it at any time.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shweta76555/deskcli/internal/errs"
)

// Key is the slot the token is written under. LegacyKey is honored
// read-only for stores written by earlier client versions.
const (
	Key       = "jwtToken"
	LegacyKey = "token"
)

// Store is the seam all session state funnels through.
type Store interface {
	// Get returns the raw token. Absence maps to errs.ErrNoSession.
	Get() (string, error)
	// Set replaces the token wholesale.
	Set(token string) error
	// Clear removes the token (both current and legacy slots).
	Clear() error
	// Has reports whether a token is present without reading it out.
	Has() bool
	// ModTime reports when the store last changed, for mutation watchers.
	// A store that never held a token returns the zero time.
	ModTime() (time.Time, error)
}

// FileStore keeps the slot in a JSON object file under the user config
// dir, one file per origin (base URL namespace is the caller's concern).
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// DefaultDir resolves the client config dir, preferring XDG_CONFIG_HOME.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "deskcli")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "deskcli")
}

// NewFileStore creates a store backed by dir/store.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "store.json")}
}

func (s *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	kv := map[string]string{}
	if err := json.Unmarshal(b, &kv); err != nil {
		return nil, fmt.Errorf("corrupt store %s: %w", s.path, err)
	}
	return kv, nil
}

func (s *FileStore) write(kv map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// Get returns the stored token, falling back to the legacy slot.
func (s *FileStore) Get() (string, error) {
	kv, err := s.read()
	if err != nil {
		return "", err
	}
	if t := kv[Key]; t != "" {
		return t, nil
	}
	if t := kv[LegacyKey]; t != "" {
		return t, nil
	}
	return "", errs.ErrNoSession
}

// Set writes the token under the current key only.
func (s *FileStore) Set(token string) error {
	kv, err := s.read()
	if err != nil {
		return err
	}
	kv[Key] = token
	return s.write(kv)
}

// Clear removes both the current and the legacy slot.
func (s *FileStore) Clear() error {
	kv, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := kv[Key]; !ok {
		if _, ok := kv[LegacyKey]; !ok {
			return nil
		}
	}
	delete(kv, Key)
	delete(kv, LegacyKey)
	return s.write(kv)
}

// Has reports token presence; read errors count as absent.
func (s *FileStore) Has() bool {
	t, err := s.Get()
	return err == nil && t != ""
}

// ModTime returns the store file's mtime, or the zero time when the file
// does not exist yet.
func (s *FileStore) ModTime() (time.Time, error) {
	fi, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

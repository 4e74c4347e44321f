package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// MemoryTier keeps the session in process memory, so it ends with the process.
type MemoryTier struct {
	mu      sync.RWMutex
	session *Session
}

// NewMemoryTier creates an empty MemoryTier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{}
}

func (t *MemoryTier) Load() (*Session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return nil, nil
	}
	cp := *t.session
	return &cp, nil
}

func (t *MemoryTier) Save(s *Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *s
	t.session = &cp
	return nil
}

func (t *MemoryTier) Delete() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = nil
	return nil
}

// FileTier keeps the session in a JSON file readable only by the owner.
type FileTier struct {
	path string
}

// NewFileTier stores the session at path.
func NewFileTier(path string) *FileTier {
	return &FileTier{path: path}
}

// DefaultFileTier stores the session under the user's config directory.
func DefaultFileTier(app string) (*FileTier, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("session: no config directory: %w", err)
	}
	return NewFileTier(filepath.Join(dir, app, "session.json")), nil
}

func (t *FileTier) Load() (*Session, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to read %s: %w", t.path, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &s, nil
}

// Save writes through a temporary file so a crash never leaves half a session.
func (t *FileTier) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), t.path)
}

func (t *FileTier) Delete() error {
	if err := os.Remove(t.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

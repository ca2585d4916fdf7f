package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"actcli/internal/project"
)

const credentialsFile = "credentials.json"

// Credentials records how a provider was authenticated. Token is only set for
// flows that issue one; API keys stay in the environment.
type Credentials struct {
	Method    string            `json:"method"`
	Token     string            `json:"token,omitempty"`
	Info      map[string]string `json:"info,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store is a JSON file of per-provider credentials, readable only by the owner.
type Store struct {
	path string

	mu    sync.Mutex
	creds map[string]Credentials
}

// DefaultStore opens <user config dir>/actcli/credentials.json.
func DefaultStore() (*Store, error) {
	dir, err := project.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return OpenStore(filepath.Join(dir, credentialsFile))
}

// OpenStore loads path if it exists. A missing file is an empty store.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, creds: map[string]Credentials{}}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &s.creds); err != nil {
			return nil, fmt.Errorf("parse credentials %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(provider string) (Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[provider]
	return c, ok
}

func (s *Store) Set(provider string, c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	s.creds[provider] = c
	return s.saveLocked()
}

// Clear forgets provider. Clearing an unknown provider does not touch disk.
func (s *Store) Clear(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[provider]; !ok {
		return nil
	}
	delete(s.creds, provider)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	b, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return os.Chmod(s.path, 0o600)
}

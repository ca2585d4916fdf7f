package trust

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"actcli/internal/project"
)

const (
	ScopePersist = "persist"
	ScopeOnce    = "once"
)

var (
	DefaultRead  = []string{"./**"}
	DefaultWrite = []string{"./out/**"}
)

// Record is the trust decision stored for one folder.
type Record struct {
	Path       string   `yaml:"path"`
	Scope      string   `yaml:"scope"`
	Read       []string `yaml:"read"`
	Write      []string `yaml:"write"`
	CloudShare bool     `yaml:"cloud_share"`
}

// Store keeps one YAML record per trusted folder, named by the folder's
// fingerprint.
type Store struct {
	Dir string
}

// DefaultStore uses <user config dir>/actcli/trust.d.
func DefaultStore() (*Store, error) {
	dir, err := project.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: filepath.Join(dir, "trust.d")}, nil
}

// Fingerprint is the sha256 of the folder's absolute path with symlinks
// resolved.
func Fingerprint(root string) (string, error) {
	abs, err := resolvePath(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:]), nil
}

func (s *Store) recordPath(root string) (string, error) {
	fp, err := Fingerprint(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, fp+".yaml"), nil
}

// Get returns the record for root, or nil when the folder is untrusted.
func (s *Store) Get(root string) (*Record, error) {
	path, err := s.recordPath(root)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read trust record: %w", err)
	}
	rec := &Record{}
	if err := yaml.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("parse trust record %s: %w", path, err)
	}
	abs, _ := filepath.Abs(root)
	if rec.Path == "" {
		rec.Path = abs
	}
	if rec.Scope == "" {
		rec.Scope = ScopePersist
	}
	if rec.Read == nil {
		rec.Read = append([]string(nil), DefaultRead...)
	}
	if rec.Write == nil {
		rec.Write = append([]string(nil), DefaultWrite...)
	}
	return rec, nil
}

// Set writes rec for root and returns the record file path.
func (s *Store) Set(root string, rec Record) (string, error) {
	path, err := s.recordPath(root)
	if err != nil {
		return "", err
	}
	if rec.Path == "" {
		rec.Path, _ = filepath.Abs(root)
	}
	if rec.Scope == "" {
		rec.Scope = ScopePersist
	}
	b, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal trust record: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return "", fmt.Errorf("create trust dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return "", fmt.Errorf("write trust record: %w", err)
	}
	return path, nil
}

// Revoke removes the record for root. Revoking an untrusted folder is a no-op.
func (s *Store) Revoke(root string) error {
	path, err := s.recordPath(root)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("revoke trust: %w", err)
	}
	return nil
}

// Consume drops a once-scoped record after it has been honoured by a session.
func (s *Store) Consume(root string, rec *Record) error {
	if rec == nil || rec.Scope != ScopeOnce {
		return nil
	}
	return s.Revoke(root)
}

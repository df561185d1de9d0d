// Package session persists the shell's server URL and signed-in session
// between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/telecombase/internal/client/api"
)

// DefaultFile is the session file name used when no path is configured.
const DefaultFile = "telecombase-session.json"

// Store is the on-disk session. The token is a bearer credential, so the
// file is always written with 0600 permissions.
type Store struct {
	BaseURL  string `json:"baseUrl"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`

	mu   sync.Mutex
	path string
}

// Load reads the store at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	if path == "" {
		path = DefaultFile
	}
	st := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return st, nil
}

// Path returns the file the store is bound to.
func (s *Store) Path() string {
	return s.path
}

// Session returns the stored session as the client type.
func (s *Store) Session() api.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return api.Session{Token: s.Token, Username: s.Username, Role: s.Role}
}

// Remember records the client's base URL and session.
func (s *Store) Remember(baseURL string, sess api.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
	s.Token = sess.Token
	s.Username = sess.Username
	s.Role = sess.Role
}

// Clear forgets the session but keeps the base URL.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = ""
	s.Username = ""
	s.Role = ""
}

// Save writes the store to its file.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(s.path, 0o600)
}

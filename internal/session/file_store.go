package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"
)

const (
	tokenFileName = "token"
	userFileName  = "user.json"
)

// FileStore persists the session under a directory: the bearer token in one
// file, the cached user profile in another. The two are always cleared
// together. Token files are written 0600.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Load() (core.Session, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, tokenFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return core.Session{}, ErrNoSession
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("read token file: %w", err)
	}

	sess := core.Session{Token: strings.TrimSpace(string(raw))}
	if sess.Token == "" {
		return core.Session{}, ErrNoSession
	}

	// The profile is a cache; a missing or corrupt file is not an error.
	if userRaw, err := os.ReadFile(filepath.Join(s.dir, userFileName)); err == nil {
		var user core.User
		if json.Unmarshal(userRaw, &user) == nil {
			sess.User = &user
		}
	}

	return sess, nil
}

func (s *FileStore) Save(sess core.Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFileName), []byte(sess.Token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	userPath := filepath.Join(s.dir, userFileName)
	if sess.User == nil {
		if err := os.Remove(userPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove user file: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := os.WriteFile(userPath, raw, 0o600); err != nil {
		return fmt.Errorf("write user file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	for _, name := range []string{tokenFileName, userFileName} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

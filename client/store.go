package client

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CredentialStore is the durable home of the token pair across restarts.
// Both tokens are saved and cleared together; a store never holds one
// without the other having been written in the same operation.
type CredentialStore interface {
	Load() (accessToken, refreshToken string, err error)
	Save(accessToken, refreshToken string) error
	Clear() error
}

const (
	accessTokenKey  = "accessToken"
	refreshTokenKey = "refreshToken"
)

// FileStore keeps the tokens in two files under a directory, one per key.
// Missing files read as empty strings, not errors.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Load() (string, string, error) {
	access, err := s.read(accessTokenKey)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.read(refreshTokenKey)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *FileStore) Save(accessToken, refreshToken string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	if err := s.write(accessTokenKey, accessToken); err != nil {
		return err
	}
	return s.write(refreshTokenKey, refreshToken)
}

func (s *FileStore) Clear() error {
	var firstErr error
	for _, key := range []string{accessTokenKey, refreshTokenKey} {
		err := os.Remove(filepath.Join(s.dir, key))
		if err != nil && !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *FileStore) read(key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) write(key, value string) error {
	return os.WriteFile(filepath.Join(s.dir, key), []byte(value), 0o600)
}

// MemStore is an in-memory CredentialStore for tests and throwaway sessions.
type MemStore struct {
	access  string
	refresh string
}

func (s *MemStore) Load() (string, string, error) { return s.access, s.refresh, nil }

func (s *MemStore) Save(accessToken, refreshToken string) error {
	s.access = accessToken
	s.refresh = refreshToken
	return nil
}

func (s *MemStore) Clear() error {
	s.access = ""
	s.refresh = ""
	return nil
}

package client

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// TokenStore holds the access/refresh token pair between requests. It is the
// browser-local-storage analog; implementations must be safe for concurrent use.
type TokenStore interface {
	Tokens() (access, refresh string)
	SetTokens(access, refresh string) error
	Clear() error
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.refresh
}

func (s *MemoryTokenStore) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.SetTokens("", "")
}

// FileTokenStore persists tokens as a JSON file so sessions survive restarts.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

type tokenFile struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", ""
	}
	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", ""
	}
	return f.AccessToken, f.RefreshToken
}

func (s *FileTokenStore) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(tokenFile{AccessToken: access, RefreshToken: refresh})
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

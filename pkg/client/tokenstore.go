// Package client is the Go SDK for the QuestDesk API. It owns the
// authenticated-session lifecycle: token persistence, session state derived
// from the access token's expiry, a refresh-on-401 HTTP transport, and the
// route guards built on top of the session.
package client

import (
	"encoding/json"
	"os"
	"sync"
)

// Fixed keys in the persistent token file
const (
	accessTokenKey  = "accessToken"
	refreshTokenKey = "refreshToken"
)

// TokenStore is the single process-wide place to persist and retrieve the
// access/refresh token pair. Operations are synchronous and idempotent;
// no validation happens here. An empty string means "absent".
type TokenStore interface {
	AccessToken() string
	SetAccessToken(token string)
	RemoveAccessToken()

	RefreshToken() string
	SetRefreshToken(token string)
	RemoveRefreshToken()
}

// MemoryTokenStore is an in-memory TokenStore, used by tests and short-lived
// tools that should not persist credentials.
type MemoryTokenStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

// NewMemoryTokenStore creates an empty in-memory token store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *MemoryTokenStore) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
}

func (s *MemoryTokenStore) RemoveAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
}

func (s *MemoryTokenStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

func (s *MemoryTokenStore) SetRefreshToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = token
}

func (s *MemoryTokenStore) RemoveRefreshToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = ""
}

// FileTokenStore persists the token pair as a small JSON file keyed by the
// fixed token keys. Storage failures are swallowed: a read error behaves as
// "no token" and a failed write leaves the previous file in place.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a token store backed by the given file path
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()[accessTokenKey]
}

func (s *FileTokenStore) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := s.load()
	tokens[accessTokenKey] = token
	s.save(tokens)
}

func (s *FileTokenStore) RemoveAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := s.load()
	delete(tokens, accessTokenKey)
	s.save(tokens)
}

func (s *FileTokenStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()[refreshTokenKey]
}

func (s *FileTokenStore) SetRefreshToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := s.load()
	tokens[refreshTokenKey] = token
	s.save(tokens)
}

func (s *FileTokenStore) RemoveRefreshToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := s.load()
	delete(tokens, refreshTokenKey)
	s.save(tokens)
}

func (s *FileTokenStore) load() map[string]string {
	tokens := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return tokens
	}
	_ = json.Unmarshal(data, &tokens)
	return tokens
}

func (s *FileTokenStore) save(tokens map[string]string) {
	data, err := json.Marshal(tokens)
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0600)
}

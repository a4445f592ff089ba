// Package credentials holds the short-lived bearer tokens the dispatcher uses
// when talking back to origin servers. Tokens are provisioned out of band by
// the host application; this store only keeps them in memory keyed by server
// base URL.
package credentials

import (
	"sync"

	"golang.org/x/oauth2"
)

// Store maps a server base URL to its bearer credential.
type Store interface {
	// TokenSource returns a source for the server's bearer token, or nil
	// when no credential is known for the URL.
	TokenSource(serverURL string) oauth2.TokenSource

	// Set installs or replaces the credential for a server.
	Set(serverURL string, token *oauth2.Token)

	// Remove forgets the credential for a server.
	Remove(serverURL string)
}

type memoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() Store {
	return &memoryStore{tokens: make(map[string]*oauth2.Token)}
}

func (s *memoryStore) TokenSource(serverURL string) oauth2.TokenSource {
	s.mu.RLock()
	token, ok := s.tokens[serverURL]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return oauth2.StaticTokenSource(token)
}

func (s *memoryStore) Set(serverURL string, token *oauth2.Token) {
	s.mu.Lock()
	s.tokens[serverURL] = token
	s.mu.Unlock()
}

func (s *memoryStore) Remove(serverURL string) {
	s.mu.Lock()
	delete(s.tokens, serverURL)
	s.mu.Unlock()
}

// Package session owns the bearer credential that marks the current user as
// authenticated. The store is the single source of truth for presence: the
// API client reads it to inject the credential and clears it on an
// authorization failure, and the navigation guard consults it on every
// navigation. Stores are handed to their consumers explicitly; nothing in
// this package is ambient.
package session

import "sync"

// CredentialKey is the fixed name the durable store keeps the bearer
// credential under.
const CredentialKey = "access_token"

// Store holds the current bearer credential.
//
// All mutations are visible process-wide immediately. ClearCredential is
// idempotent: clearing an absent credential is a no-op, never an error.
type Store interface {
	// SetCredential stores the token and makes presence true. The token is
	// opaque; no well-formedness validation is performed.
	SetCredential(token string)

	// ClearCredential removes the token and makes presence false.
	ClearCredential()

	// HasCredential reports whether a credential is present. Pure read.
	HasCredential() bool

	// GetCredential returns the stored token, or "" when absent.
	GetCredential() string
}

// MemoryStore is the in-process Store implementation
type MemoryStore struct {
	mu         sync.RWMutex
	credential string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetCredential stores the token
func (s *MemoryStore) SetCredential(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = token
}

// ClearCredential removes the token
func (s *MemoryStore) ClearCredential() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
}

// HasCredential reports whether a credential is present
func (s *MemoryStore) HasCredential() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential != ""
}

// GetCredential returns the stored token, or "" when absent
func (s *MemoryStore) GetCredential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

var _ Store = (*MemoryStore)(nil)

package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/userdeck/userdeck/pkg/interfaces"
)

// FileStore is a durable Store backed by a JSON credentials file, the CLI
// analog of a browser's local storage: the token lives under the fixed
// CredentialKey and an absent or unreadable file means logged out.
//
// The in-memory copy is authoritative for reads; every mutation is written
// through. Persistence failures are logged, never raised, so the Store
// contract stays error-free.
type FileStore struct {
	mu         sync.RWMutex
	path       string
	credential string
	logger     interfaces.Logger
}

// NewFileStore creates a store backed by the file at path, loading any
// previously persisted credential. A corrupt or missing file loads as an
// absent credential.
func NewFileStore(path string, logger interfaces.Logger) *FileStore {
	s := &FileStore{path: path, logger: logger}
	s.credential = s.load()
	return s
}

// SetCredential stores the token and persists it
func (s *FileStore) SetCredential(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = token
	s.persist(token)
}

// ClearCredential removes the token and deletes the credentials file
func (s *FileStore) ClearCredential() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.warn("failed to remove credentials file", err)
	}
}

// HasCredential reports whether a credential is present
func (s *FileStore) HasCredential() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential != ""
}

// GetCredential returns the stored token, or "" when absent
func (s *FileStore) GetCredential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Path returns the location of the credentials file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warn("failed to read credentials file", err)
		}
		return ""
	}

	var creds map[string]string
	if err := json.Unmarshal(data, &creds); err != nil {
		s.warn("credentials file is corrupt, treating as logged out", err)
		return ""
	}
	return creds[CredentialKey]
}

// persist writes the credentials file atomically with owner-only
// permissions. Callers hold the write lock.
func (s *FileStore) persist(token string) {
	data, err := json.Marshal(map[string]string{CredentialKey: token})
	if err != nil {
		s.warn("failed to encode credentials", err)
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		s.warn("failed to create credentials directory", err)
		return
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		s.warn("failed to stage credentials file", err)
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.warn("failed to write credentials file", err)
		return
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.warn("failed to set credentials file mode", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.warn("failed to close credentials file", err)
		return
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.warn("failed to replace credentials file", err)
	}
}

func (s *FileStore) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, map[string]interface{}{"path": s.path, "error": err.Error()})
	}
}

var _ Store = (*FileStore)(nil)

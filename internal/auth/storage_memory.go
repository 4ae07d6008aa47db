package auth

import (
	"context"
	"sync"
)

// MemoryStorage keeps credentials in process memory. Used by tests and by
// deployments that must not persist tokens.
type MemoryStorage struct {
	mu    sync.RWMutex
	creds *StoredCredentials
}

// NewMemoryStorage returns empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) SaveTokens(_ context.Context, creds *StoredCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = cloneCredentials(creds)
	return nil
}

func (s *MemoryStorage) GetTokens(_ context.Context) (*StoredCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCredentials(s.creds), nil
}

func (s *MemoryStorage) DeleteTokens(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}

func (s *MemoryStorage) HasTokens(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds != nil, nil
}

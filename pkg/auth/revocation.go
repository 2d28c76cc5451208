package auth

import (
	"context"
	"sync"
)

// DefaultSweepThreshold is the registry size above which Logout sweeps
// expired entries inline.
const DefaultSweepThreshold = 1000

// RevocationStore holds access tokens that were logged out before their
// natural expiry.
//
// The in-memory implementation is process local: entries do not survive a
// restart and are not shared between instances. Swapping in a shared store
// only requires another implementation of this interface.
type RevocationStore interface {
	// Revoke inserts token and returns the resulting registry size
	Revoke(ctx context.Context, token string) (int, error)
	IsRevoked(ctx context.Context, token string) (bool, error)
	Len(ctx context.Context) (int, error)
	// Sweep drops every entry for which keep returns false
	Sweep(ctx context.Context, keep func(token string) bool) (int, error)
}

// MemoryRevocationStore is a mutex guarded set
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewMemoryRevocationStore creates an empty registry
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]struct{})}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, token string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = struct{}{}
	return len(s.revoked), nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[token]
	return ok, nil
}

func (s *MemoryRevocationStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revoked), nil
}

// Sweep runs to completion under the write lock
func (s *MemoryRevocationStore) Sweep(_ context.Context, keep func(token string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token := range s.revoked {
		if !keep(token) {
			delete(s.revoked, token)
			removed++
		}
	}
	return removed, nil
}

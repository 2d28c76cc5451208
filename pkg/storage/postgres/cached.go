package postgres

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedAccountStore puts an expirable LRU in front of GetByID, the lookup
// every token validation performs. Entries live for ttl, so a suspension
// becomes visible to token validation within ttl.
type CachedAccountStore struct {
	next  auth.AccountStore
	cache *lru.LRU[string, *auth.Account]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedAccountStore wraps next with a cache of size entries
func NewCachedAccountStore(next auth.AccountStore, size int, ttl time.Duration) *CachedAccountStore {
	if size < 1 {
		size = 1
	}
	return &CachedAccountStore{
		next:  next,
		cache: lru.NewLRU[string, *auth.Account](size, nil, ttl),
	}
}

// GetByID serves from the cache, falling back to next. Misses are not cached.
func (s *CachedAccountStore) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	if a, ok := s.cache.Get(id); ok {
		s.hits.Add(1)
		cp := *a
		return &cp, nil
	}
	s.misses.Add(1)

	a, err := s.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *a
	s.cache.Add(id, &cp)
	return a, nil
}

// GetByEmail always reads through; login must see the current hash
func (s *CachedAccountStore) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return s.next.GetByEmail(ctx, email)
}

// Create writes through and drops any stale entry for the id
func (s *CachedAccountStore) Create(ctx context.Context, a *auth.Account) error {
	if err := s.next.Create(ctx, a); err != nil {
		return err
	}
	s.cache.Remove(a.ID)
	return nil
}

// Invalidate drops id from the cache
func (s *CachedAccountStore) Invalidate(id string) {
	s.cache.Remove(id)
}

// CacheStats reports hits, misses and current entry count
func (s *CachedAccountStore) CacheStats() (hits, misses int64, entries int) {
	return s.hits.Load(), s.misses.Load(), s.cache.Len()
}

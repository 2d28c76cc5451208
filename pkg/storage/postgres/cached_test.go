package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
	byIDHits int
}

func (c *countingStore) GetByID(_ context.Context, id string) (*auth.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byIDHits++
	a, ok := c.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (c *countingStore) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	return nil, auth.ErrNotFound
}

func (c *countingStore) Create(_ context.Context, a *auth.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[a.ID] = a
	return nil
}

func TestCachedAccountStore(t *testing.T) {
	next := &countingStore{accounts: map[string]*auth.Account{"u1": {ID: "u1", Name: "Sam"}}}
	store := NewCachedAccountStore(next, 8, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a, err := store.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Sam", a.Name)
		a.Name = "mutated"
	}
	assert.Equal(t, 1, next.byIDHits)

	hits, misses, entries := store.CacheStats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, entries)

	store.Invalidate("u1")
	_, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.byIDHits)
}

func TestCachedAccountStore_MissesAreNotCached(t *testing.T) {
	next := &countingStore{accounts: map[string]*auth.Account{}}
	store := NewCachedAccountStore(next, 8, time.Minute)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	require.NoError(t, store.Create(ctx, &auth.Account{ID: "u1"}))
	a, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.ID)
}

func TestCachedAccountStore_Expiry(t *testing.T) {
	next := &countingStore{accounts: map[string]*auth.Account{"u1": {ID: "u1"}}}
	store := NewCachedAccountStore(next, 8, 20*time.Millisecond)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = store.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.byIDHits)
}

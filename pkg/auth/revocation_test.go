package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()

	n, err := store.Revoke(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Revoking twice does not grow the set.
	n, err = store.Revoke(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	revoked, err := store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevocationStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()
	for i := 0; i < 10; i++ {
		_, err := store.Revoke(ctx, fmt.Sprintf("t%d", i))
		require.NoError(t, err)
	}

	removed, err := store.Sweep(ctx, func(token string) bool { return token < "t5" })
	require.NoError(t, err)
	assert.Equal(t, 5, removed)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestMemoryRevocationStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("t%d", i)
			store.Revoke(ctx, token)
			store.IsRevoked(ctx, token)
			if i%10 == 0 {
				store.Sweep(ctx, func(string) bool { return true })
			}
		}(i)
	}
	wg.Wait()

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// 过期后自动失效
	now = now.Add(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryTokenStoreIgnoresExpiredTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	require.NoError(t, store.Revoke(ctx, "jti-2", 0))
	revoked, err := store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNewTokenStoreFallback(t *testing.T) {
	store := NewTokenStore(&config.RedisConfig{})
	_, ok := store.(*MemoryTokenStore)
	assert.True(t, ok)

	store = NewTokenStore(&config.RedisConfig{URL: "not a url"})
	_, ok = store.(*MemoryTokenStore)
	assert.True(t, ok)
}

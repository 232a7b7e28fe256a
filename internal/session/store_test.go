package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/cache"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	return NewStore(c), mr
}

func TestStore_SaveMatchesDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "u1", "tok-1"))
	assert.Equal(t, tokens.RefreshTTL, mr.TTL("refresh_token:u1"))

	ok, err := s.Matches(ctx, "u1", "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Matches(ctx, "u1", "tok-other")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, "u1"))
	ok, err = s.Matches(ctx, "u1", "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LastSaveWins(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "u1", "first"))
	require.NoError(t, s.Save(ctx, "u1", "second"))

	ok, err := s.Matches(ctx, "u1", "first")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Matches(ctx, "u1", "second")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_RecordExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "u1", "tok"))
	mr.FastForward(tokens.RefreshTTL + time.Second)

	ok, err := s.Matches(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CacheDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	s := NewStore(cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ""))
	mr.Close()

	_, err = s.Matches(context.Background(), "u1", "tok")
	assert.Error(t, err)
}

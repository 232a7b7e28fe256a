// Package testutil builds throwaway SQLite and Redis backends for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/cache"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

// NewDB opens a migrated in-memory SQLite database. Every connection to
// :memory: is a separate database, so the pool is pinned to one.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := pkgdb.OpenDialector(context.Background(), sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repo.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}

func NewCache(t *testing.T) (*cache.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

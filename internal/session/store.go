// Package session keeps the currently valid refresh token of each user.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/storefront/pkg/cache"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const keyPrefix = "refresh_token:"

type Store struct {
	Cache *cache.Client
	TTL   time.Duration
}

func NewStore(c *cache.Client) *Store {
	return &Store{Cache: c, TTL: tokens.RefreshTTL}
}

func key(userID string) string { return keyPrefix + userID }

// Save overwrites the user's record; the last signin wins.
func (s *Store) Save(ctx context.Context, userID, token string) error {
	return s.Cache.Set(ctx, key(userID), token, s.TTL)
}

func (s *Store) Matches(ctx context.Context, userID, token string) (bool, error) {
	stored, err := s.Cache.Get(ctx, key(userID))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	return s.Cache.Del(ctx, key(userID))
}

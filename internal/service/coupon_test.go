package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestCouponService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	env.Coupons.Now = func() time.Time { return now }

	u := env.createUser(t, "a@x.com", models.RoleCustomer)
	other := env.createUser(t, "b@x.com", models.RoleCustomer)

	got, err := env.Coupons.GetCoupon(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, env.Repo.ReplaceCoupon(ctx, &models.Coupon{
		Code:               "GIFTAAAAAA",
		DiscountPercentage: 10,
		ExpirationDate:     now.Add(time.Hour),
		IsActive:           true,
		UserID:             u.ID,
	}))

	t.Run("valid", func(t *testing.T) {
		c, err := env.Coupons.ValidateCoupon(ctx, u.ID, " GIFTAAAAAA ")
		require.NoError(t, err)
		assert.Equal(t, 10, c.DiscountPercentage)

		c, err = env.Coupons.GetCoupon(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "GIFTAAAAAA", c.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := env.Coupons.ValidateCoupon(ctx, u.ID, "NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrCouponExpired)
	})

	t.Run("belongs to another user", func(t *testing.T) {
		_, err := env.Coupons.ValidateCoupon(ctx, other.ID, "GIFTAAAAAA")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := env.Coupons.ValidateCoupon(ctx, u.ID, "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("expired is deactivated", func(t *testing.T) {
		now = now.Add(2 * time.Hour)

		_, err := env.Coupons.ValidateCoupon(ctx, u.ID, "GIFTAAAAAA")
		assert.ErrorIs(t, err, ErrCouponExpired)
		assert.ErrorIs(t, err, ErrNotFound)

		c, err := env.Coupons.GetCoupon(ctx, u.ID)
		require.NoError(t, err)
		assert.Nil(t, c)

		_, err = env.Coupons.ValidateCoupon(ctx, u.ID, "GIFTAAAAAA")
		assert.NotErrorIs(t, err, ErrCouponExpired)
	})
}

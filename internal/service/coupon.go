package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

var ErrCouponExpired = fmt.Errorf("coupon expired: %w", ErrNotFound)

type CouponService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GetCoupon returns the user's active coupon or nil.
func (s *CouponService) GetCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, error) {
	c, err := s.Repo.ActiveCoupon(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return c, err
}

// ValidateCoupon checks code against the user's active coupon. Expired
// coupons are deactivated on the way.
func (s *CouponService) ValidateCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("coupon code is required: %w", ErrValidation)
	}

	c, err := s.Repo.FindActiveCoupon(ctx, userID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("coupon not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}

	if c.Expired(s.now()) {
		if err := s.Repo.DeactivateCoupon(ctx, userID, c.Code); err != nil {
			return nil, fmt.Errorf("deactivate coupon: %w", err)
		}
		return nil, ErrCouponExpired
	}
	return c, nil
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ActiveCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) FindActiveCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).
		Where("code = ? AND user_id = ? AND is_active = ?", code, userID, true).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) DeactivateCoupon(ctx context.Context, userID uuid.UUID, code string) error {
	return r.DB.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code = ? AND user_id = ?", code, userID).
		Update("is_active", false).Error
}

// ReplaceCoupon drops the user's current coupon and stores c; a user holds
// at most one coupon.
func (r *GormRepo) ReplaceCoupon(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", c.UserID).Delete(&models.Coupon{}).Error; err != nil {
			return err
		}
		return tx.Create(c).Error
	})
}

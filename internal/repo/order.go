package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("payment_session_id = ?", sessionID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrderOnce stores order unless one already exists for its payment
// session, in which case the stored order is returned and created is false.
func (r *GormRepo) CreateOrderOnce(ctx context.Context, order *models.Order) (*models.Order, bool, error) {
	var existing models.Order
	created := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Items").Where("payment_session_id = ?", order.PaymentSessionID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		existing = *order
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &existing, created, nil
}

type SalesTotals struct {
	Sales   int64
	Revenue int64
}

func (r *GormRepo) SalesTotals(ctx context.Context) (SalesTotals, error) {
	var out SalesTotals
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS sales, COALESCE(SUM(total_amount), 0) AS revenue").
		Scan(&out).Error
	return out, err
}

type OrderStamp struct {
	CreatedAt   time.Time
	TotalAmount int64
}

// OrdersBetween lists creation time and amount of orders in [from, to].
func (r *GormRepo) OrdersBetween(ctx context.Context, from, to time.Time) ([]OrderStamp, error) {
	var out []OrderStamp
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("created_at", "total_amount").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").
		Scan(&out).Error
	return out, err
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	if err := r.DB.WithContext(ctx).
		Table("cart_items").
		Select("products.*, cart_items.quantity AS quantity").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("products.name ASC").
		Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// AddToCart inserts the line or adds to the quantity of the existing one in
// one statement, so concurrent first adds of a product cannot both insert.
// item is reloaded with the stored line.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	db := r.DB.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
		}),
	}).Create(item).Error
	if err != nil {
		return err
	}

	var stored models.CartItem
	if err := db.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(&stored).Error; err != nil {
		return err
	}
	*item = stored
	return nil
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// SetQuantity overwrites a line's quantity; 0 removes the line. A missing
// line yields gorm.ErrRecordNotFound.
func (r *GormRepo) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	q := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID)

	var res *gorm.DB
	if quantity == 0 {
		res = q.Delete(&models.CartItem{})
	} else {
		res = q.Update("quantity", quantity)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

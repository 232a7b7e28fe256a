package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/events"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	return s.Repo.GetCart(ctx, userID)
}

// AddToCart adds quantity (1 when zero) of the product, merging with an
// existing line.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]models.CartLine, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id is required: %w", ErrValidation)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative: %w", ErrValidation)
	}
	if quantity == 0 {
		quantity = 1
	}

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}

	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	s.emit(ctx, userID, events.Event{
		"type":      "cart_item_added",
		"productID": productID.String(),
		"quantity":  item.Quantity,
	})
	return s.Repo.GetCart(ctx, userID)
}

// RemoveFromCart drops one line, or the whole cart when productID is nil.
func (s *CartService) RemoveFromCart(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) ([]models.CartLine, error) {
	if productID == nil {
		if err := s.Repo.ClearCart(ctx, userID); err != nil {
			return nil, fmt.Errorf("clear cart: %w", err)
		}
		s.emit(ctx, userID, events.Event{"type": "cart_cleared"})
	} else {
		if err := s.Repo.RemoveFromCart(ctx, userID, *productID); err != nil {
			return nil, fmt.Errorf("remove from cart: %w", err)
		}
		s.emit(ctx, userID, events.Event{"type": "cart_item_removed", "productID": productID.String()})
	}
	return s.Repo.GetCart(ctx, userID)
}

// UpdateQuantity sets a line's quantity; 0 removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]models.CartLine, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative: %w", ErrValidation)
	}
	if err := s.Repo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found in cart: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update quantity: %w", err)
	}

	s.emit(ctx, userID, events.Event{
		"type":      "cart_quantity_updated",
		"productID": productID.String(),
		"quantity":  quantity,
	})
	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) emit(ctx context.Context, userID uuid.UUID, ev events.Event) {
	ev["userID"] = userID.String()
	events.Emit(ctx, s.Events, events.TopicCart, userID.String(), ev)
}

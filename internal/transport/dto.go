// Package transport holds the JSON request bodies of the HTTP API.
package transport

import "strings"

type SignupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Normalize trims the free-text fields so validation sees what gets stored.
func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

type SigninRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *SigninRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// LogoutRequest carries a refresh token in UserID for clients that cannot
// send cookies.
type LogoutRequest struct {
	UserID string `json:"userId"`
}

type CreateProductRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price"       validate:"gte=0"`
	Image       string `json:"image"`
	Category    string `json:"category"    validate:"required"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"  validate:"gte=0"`
}

type RemoveFromCartRequest struct {
	ProductID string `json:"productId"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type ValidateCouponRequest struct {
	Code string `json:"code" query:"code"`
}

type CheckoutProduct struct {
	ID       string `json:"id"       validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type CreateCheckoutSessionRequest struct {
	Products   []CheckoutProduct `json:"products"   validate:"required,min=1,dive"`
	CouponCode string            `json:"couponCode"`
}

type CheckoutSuccessRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

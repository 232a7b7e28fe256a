package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Name         string    `gorm:"not null"                      json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Role         string    `gorm:"not null;default:customer"     json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `gorm:"not null"                 json:"description"`
	// Price is in minor currency units (cents).
	Price      int64     `gorm:"not null;check:price >= 0" json:"price"`
	Image      string    `json:"image"`
	Category   string    `gorm:"index;not null"           json:"category"`
	IsFeatured bool      `gorm:"index;default:false"      json:"isFeatured"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                       json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line" json:"productId"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"       json:"quantity"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey"   json:"id"`
	UserID           uuid.UUID   `gorm:"type:uuid;index;not null" json:"userId"`
	Items            []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"products"`
	TotalAmount      int64       `gorm:"not null;check:total_amount >= 0" json:"totalAmount"`
	PaymentSessionID string      `gorm:"uniqueIndex"            json:"paymentSessionId"`
	CreatedAt        time.Time   `gorm:"index"                  json:"createdAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"               json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"           json:"orderId"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"                 json:"productId"`
	Quantity  int       `gorm:"not null;check:quantity > 0"        json:"quantity"`
	Price     int64     `gorm:"not null;check:price >= 0"          json:"price"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Coupon struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"                json:"id"`
	Code               string    `gorm:"uniqueIndex;not null"                json:"code"`
	DiscountPercentage int       `gorm:"not null;check:discount_percentage >= 0 AND discount_percentage <= 100" json:"discountPercentage"`
	ExpirationDate     time.Time `gorm:"not null"                            json:"expirationDate"`
	IsActive           bool      `gorm:"not null"                            json:"isActive"`
	UserID             uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"      json:"userId"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpirationDate.Before(now)
}

// All lists every model for migrations.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}, &Order{}, &OrderItem{}, &Coupon{}}
}

// CartLine is a cart entry joined with its product.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

package storeclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	IsFeatured  bool   `json:"isFeatured"`
}

type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

type Coupon struct {
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discountPercentage"`
	ExpirationDate     time.Time `json:"expirationDate"`
	IsActive           bool      `json:"isActive"`
}

type CouponValidation struct {
	Message            string `json:"message"`
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discountPercentage"`
}

type signupResponse struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

func (c *Client) Signup(ctx context.Context, email, password, name string) (*User, error) {
	var res signupResponse
	in := map[string]string{"email": email, "password": password, "name": name}
	if err := c.doJSON(ctx, http.MethodPost, signupPath, in, &res); err != nil {
		return nil, err
	}
	c.setUser(&res.User)
	return &res.User, nil
}

func (c *Client) Signin(ctx context.Context, email, password string) (*User, error) {
	var u User
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, signinPath, in, &u); err != nil {
		c.setUser(nil)
		return nil, err
	}
	c.setUser(&u)
	return &u, nil
}

// Logout clears the local user even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, logoutPath, nil, nil)
	c.setUser(nil)
	return err
}

// Profile reloads the mirrored user from the server.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/profile", nil, &u); err != nil {
		c.setUser(nil)
		return nil, err
	}
	c.setUser(&u)
	return &u, nil
}

// Refresh renews the access token directly, sharing any refresh in flight.
func (c *Client) Refresh(ctx context.Context) error {
	if !c.awaitRefresh(ctx, c.generation()) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return &APIError{StatusCode: http.StatusUnauthorized, Message: "session expired"}
	}
	return nil
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/featured", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Cart(ctx context.Context) ([]CartLine, error) {
	var out []CartLine
	if err := c.doJSON(ctx, http.MethodGet, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddToCart(ctx context.Context, productID string) ([]CartLine, error) {
	var out []CartLine
	in := map[string]string{"productId": productID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/cart", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Coupon returns the user's active coupon, nil when there is none.
func (c *Client) Coupon(ctx context.Context) (*Coupon, error) {
	var out *Coupon
	if err := c.doJSON(ctx, http.MethodGet, "/api/coupons", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ValidateCoupon(ctx context.Context, code string) (*CouponValidation, error) {
	var out CouponValidation
	path := "/api/coupons/validate?code=" + url.QueryEscape(code)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

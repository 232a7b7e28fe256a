package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	// GiftThreshold is the pre-discount total, in cents, that earns a gift coupon.
	GiftThreshold       = 20000
	GiftDiscountPercent = 10
	GiftValidity        = 30 * 24 * time.Hour

	giftPrefix   = "GIFT"
	giftAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	giftCodeLen  = 6

	currency = "usd"
)

type CheckoutItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type CheckoutResult struct {
	SessionID string
	// TotalAmount is in cents after discount.
	TotalAmount int64
	GiftCoupon  *models.Coupon
}

// sessionLine is one entry of the "products" session metadata.
type sessionLine struct {
	ID       uuid.UUID `json:"id"`
	Quantity int       `json:"quantity"`
	Price    int64     `json:"price"`
}

type PaymentService struct {
	Repo      *repo.GormRepo
	Gateway   payment.Gateway
	Events    events.Publisher
	ClientURL string
	Now       func() time.Time
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateCheckoutSession prices items from the catalog, applies the user's
// coupon and opens a gateway session.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, user *models.User, items []CheckoutItem, couponCode string) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create_session", "user_id", user.ID)

	if len(items) == 0 {
		return nil, fmt.Errorf("no products to check out: %w", ErrValidation)
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.ProductID == uuid.Nil || it.Quantity < 1 {
			return nil, fmt.Errorf("each product needs an id and a positive quantity: %w", ErrValidation)
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var total int64
	lineItems := make([]payment.LineItem, 0, len(items))
	meta := make([]sessionLine, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s not found: %w", it.ProductID, ErrNotFound)
		}
		total += p.Price * int64(it.Quantity)
		lineItems = append(lineItems, payment.LineItem{
			ProductID:  p.ID.String(),
			Name:       p.Name,
			Image:      p.Image,
			UnitAmount: p.Price,
			Quantity:   it.Quantity,
		})
		meta = append(meta, sessionLine{ID: p.ID, Quantity: it.Quantity, Price: p.Price})
	}
	subtotal := total

	var coupon *models.Coupon
	if code := strings.TrimSpace(couponCode); code != "" {
		c, err := s.Repo.FindActiveCoupon(ctx, user.ID, code)
		switch {
		case err == nil && !c.Expired(s.now()):
			coupon = c
			total -= (total*int64(c.DiscountPercentage) + 50) / 100
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("find coupon: %w", err)
		}
	}

	metaProducts, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	req := payment.CreateSessionRequest{
		Currency:   currency,
		LineItems:  lineItems,
		SuccessURL: s.ClientURL + "/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.ClientURL + "/purchase-cancel",
		Metadata: map[string]string{
			"userId":     user.ID.String(),
			"couponCode": "",
			"products":   string(metaProducts),
		},
	}
	if coupon != nil {
		req.DiscountPercentage = coupon.DiscountPercentage
		req.Metadata["couponCode"] = coupon.Code
	}

	sess, err := s.Gateway.CreateSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %v: %w", err, ErrUpstream)
	}

	res := &CheckoutResult{SessionID: sess.ID, TotalAmount: total}
	if subtotal >= GiftThreshold {
		gift, err := s.createGiftCoupon(ctx, user.ID)
		if err != nil {
			l.Error("gift_coupon_failed", "status", 500, "reason", "cannot create gift coupon", "error", err)
		} else {
			res.GiftCoupon = gift
		}
	}
	return res, nil
}

// createGiftCoupon replaces whatever coupon the user holds.
func (s *PaymentService) createGiftCoupon(ctx context.Context, userID uuid.UUID) (*models.Coupon, error) {
	code, err := giftCode()
	if err != nil {
		return nil, err
	}
	c := &models.Coupon{
		Code:               code,
		DiscountPercentage: GiftDiscountPercent,
		ExpirationDate:     s.now().Add(GiftValidity).UTC(),
		IsActive:           true,
		UserID:             userID,
	}
	if err := s.Repo.ReplaceCoupon(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func giftCode() (string, error) {
	var b strings.Builder
	b.WriteString(giftPrefix)
	size := big.NewInt(int64(len(giftAlphabet)))
	for i := 0; i < giftCodeLen; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("gift code: %w", err)
		}
		b.WriteByte(giftAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// CheckoutSuccess records the order of a paid session. Repeated calls for
// the same session return the order stored first.
func (s *PaymentService) CheckoutSuccess(ctx context.Context, user *models.User, sessionID string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.checkout_success", "user_id", user.ID)

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required: %w", ErrValidation)
	}

	sess, err := s.Gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %v: %w", err, ErrUpstream)
	}
	if sess.PaymentStatus != payment.StatusPaid {
		return nil, fmt.Errorf("payment not completed: %w", ErrValidation)
	}
	if sess.Metadata["userId"] != user.ID.String() {
		return nil, fmt.Errorf("session belongs to another user: %w", ErrForbidden)
	}

	if code := sess.Metadata["couponCode"]; code != "" {
		if err := s.Repo.DeactivateCoupon(ctx, user.ID, code); err != nil {
			l.Warn("coupon_deactivate_failed", "code", code, "error", err)
		}
	}

	var lines []sessionLine
	if err := json.Unmarshal([]byte(sess.Metadata["products"]), &lines); err != nil {
		return nil, fmt.Errorf("session products metadata: %v: %w", err, ErrUpstream)
	}
	order := &models.Order{
		UserID:           user.ID,
		TotalAmount:      sess.AmountTotal,
		PaymentSessionID: sess.ID,
		Items:            make([]models.OrderItem, 0, len(lines)),
	}
	for _, ln := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: ln.ID,
			Quantity:  ln.Quantity,
			Price:     ln.Price,
		})
	}

	stored, created, err := s.Repo.CreateOrderOnce(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if created {
		events.Emit(ctx, s.Events, events.TopicOrder, stored.ID.String(), events.Event{
			"type":        "order_created",
			"orderID":     stored.ID.String(),
			"userID":      user.ID.String(),
			"totalAmount": stored.TotalAmount,
		})
	}
	return stored, nil
}

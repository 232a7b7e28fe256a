package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_checkout_session")

	var req transport.CreateCheckoutSessionRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_checkout_session_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("create_checkout_session_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	items := make([]service.CheckoutItem, 0, len(req.Products))
	for _, p := range req.Products {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			l.Warn("create_checkout_session_failed", "status", 400, "reason", "product id is not a uuid", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		items = append(items, service.CheckoutItem{ProductID: id, Quantity: p.Quantity})
	}

	res, err := h.Svc.CreateCheckoutSession(ctx, CurrentUser(c), items, req.CouponCode)
	if err != nil {
		return fail(l, "create_checkout_session_failed", err, "Error processing checkout")
	}

	l.Info("create_checkout_session_successful", "session_id", res.SessionID, "total_cents", res.TotalAmount)
	return c.JSON(http.StatusOK, echo.Map{
		"id":          res.SessionID,
		"totalAmount": float64(res.TotalAmount) / 100,
	})
}

func (h *PaymentHTTP) CheckoutSuccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.checkout_success")

	var req transport.CheckoutSuccessRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_success_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("checkout_success_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	order, err := h.Svc.CheckoutSuccess(ctx, CurrentUser(c), req.SessionID)
	if err != nil {
		return fail(l, "checkout_success_failed", err, "Error processing successful checkout")
	}

	l.Info("checkout_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Payment successful, order created, and coupon deactivated if used.",
		"orderId": order.ID,
	})
}

package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

// GetCoupon answers with the active coupon or JSON null.
func (h *CouponHTTP) GetCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.get")

	coupon, err := h.Svc.GetCoupon(ctx, CurrentUser(c).ID)
	if err != nil {
		return fail(l, "get_coupon_failed", err, "cannot get coupon")
	}
	return c.JSON(http.StatusOK, coupon)
}

// ValidateCoupon reads the code from the query string or the body.
func (h *CouponHTTP) ValidateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("validate_coupon_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" {
		req.Code = c.QueryParam("code")
	}

	coupon, err := h.Svc.ValidateCoupon(ctx, CurrentUser(c).ID, req.Code)
	switch {
	case errors.Is(err, service.ErrCouponExpired):
		l.Warn("validate_coupon_failed", "status", 404, "reason", "coupon expired")
		return echo.NewHTTPError(http.StatusNotFound, "Coupon expired")
	case errors.Is(err, service.ErrNotFound):
		l.Warn("validate_coupon_failed", "status", 404, "reason", "coupon not found")
		return echo.NewHTTPError(http.StatusNotFound, "Coupon not found")
	case err != nil:
		return fail(l, "validate_coupon_failed", err, "cannot validate coupon")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":            "Coupon is valid",
		"code":               coupon.Code,
		"discountPercentage": coupon.DiscountPercentage,
	})
}

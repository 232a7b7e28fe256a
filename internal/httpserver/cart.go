package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	lines, err := h.Svc.GetCart(ctx, CurrentUser(c).ID)
	if err != nil {
		return fail(l, "get_cart_failed", err, "cannot get cart")
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "productId is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	lines, err := h.Svc.AddToCart(ctx, CurrentUser(c).ID, productID, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart_failed", err, "cannot add to cart")
	}
	return c.JSON(http.StatusOK, lines)
}

// RemoveFromCart removes one line, or everything when no productId is sent.
func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var req transport.RemoveFromCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_from_cart_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var target *uuid.UUID
	if req.ProductID != "" {
		id, err := uuid.Parse(req.ProductID)
		if err != nil {
			l.Warn("remove_from_cart_failed", "status", 400, "reason", "productId is not a uuid", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		target = &id
	}

	lines, err := h.Svc.RemoveFromCart(ctx, CurrentUser(c).ID, target)
	if err != nil {
		return fail(l, "remove_from_cart_failed", err, "cannot remove from cart")
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	id, err := productID(c)
	if err != nil {
		l.Warn("update_quantity_failed", "status", 400, "reason", "id is not a uuid")
		return err
	}
	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("update_quantity_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	lines, err := h.Svc.UpdateQuantity(ctx, CurrentUser(c).ID, id, *req.Quantity)
	if err != nil {
		return fail(l, "update_quantity_failed", err, "cannot update quantity")
	}
	return c.JSON(http.StatusOK, lines)
}

package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func productID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return id, nil
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	items, err := h.Svc.ListProducts(ctx)
	if err != nil {
		return fail(l, "get_products_failed", err, "cannot get products")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetFeatured(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_featured")

	items, err := h.Svc.FeaturedProducts(ctx)
	if err != nil {
		return fail(l, "get_featured_failed", err, "cannot get featured products")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetRecommendations(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_recommendations")

	items, err := h.Svc.Recommendations(ctx)
	if err != nil {
		return fail(l, "get_recommendations_failed", err, "cannot get recommended products")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetByCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_by_category")

	items, err := h.Svc.ProductsByCategory(ctx, c.Param("category"))
	if err != nil {
		return fail(l, "get_by_category_failed", err, "cannot get products by category")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	p := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := page(p, parseIntDefault(c.QueryParam("size"), DefaultPageSize))

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_failed", err, "cannot search products")
	}
	if p < 1 {
		p = 1
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"page":        p,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    p > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := productID(c)
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not a uuid")
		return err
	}
	prod, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err, "cannot get product")
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	prod, err := h.Svc.CreateProduct(ctx, service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
	})
	if err != nil {
		return fail(l, "product_create_failed", err, "Failed to create product")
	}

	l.Info("product_create_successful", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) ToggleFeatured(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.toggle_featured")

	id, err := productID(c)
	if err != nil {
		l.Warn("toggle_featured_failed", "status", 400, "reason", "id is not a uuid")
		return err
	}
	prod, err := h.Svc.ToggleFeatured(ctx, id)
	if err != nil {
		return fail(l, "toggle_featured_failed", err, "cannot update product")
	}

	l.Info("toggle_featured_successful", "product_id", prod.ID, "is_featured", prod.IsFeatured)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := productID(c)
	if err != nil {
		l.Warn("product_delete_failed", "status", 400, "reason", "id is not a uuid")
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_failed", err, "Failed to delete")
	}

	l.Info("product_delete_successful", "product_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
)

type Deps struct {
	Guard     *Guard
	Auth      *AuthHTTP
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Coupons   *CouponHTTP
	Payment   *PaymentHTTP
	Analytics *AnalyticsHTTP

	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

// New returns an echo instance with the shared middleware stack.
func New(log *slog.Logger, allowOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(log),
		metrics.Middleware(),
		middleware.BodyLimit("10M"),
	)
	if len(allowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     allowOrigins,
			AllowCredentials: true,
		}))
	}
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	protect := d.Guard.ProtectRoute()
	admin := d.Guard.AdminRoute

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/signin", d.Auth.Signin)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/refresh-token", d.Auth.RefreshToken)
	auth.GET("/profile", d.Auth.Profile, protect)

	products := api.Group("/products")
	products.GET("/featured", d.Catalog.GetFeatured)
	products.GET("/recommendations", d.Catalog.GetRecommendations)
	products.GET("/category/:category", d.Catalog.GetByCategory)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.GET("", d.Catalog.GetProducts, protect, admin)
	products.POST("", d.Catalog.CreateProduct, protect, admin)
	products.PATCH("/:id", d.Catalog.ToggleFeatured, protect, admin)
	products.DELETE("/:id", d.Catalog.DeleteProduct, protect, admin)

	cart := api.Group("/cart", protect)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.DELETE("", d.Cart.RemoveFromCart)
	cart.PUT("/:id", d.Cart.UpdateQuantity)

	coupons := api.Group("/coupons", protect)
	coupons.GET("", d.Coupons.GetCoupon)
	coupons.GET("/validate", d.Coupons.ValidateCoupon)
	coupons.POST("/validate", d.Coupons.ValidateCoupon)

	payment := api.Group("/payment", protect)
	payment.POST("/create-checkout-session", d.Payment.CreateCheckoutSession)
	payment.POST("/checkout-success", d.Payment.CheckoutSuccess)

	api.GET("/analytics", d.Analytics.GetAnalytics, protect, admin)
}

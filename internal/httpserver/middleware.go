package httpserver

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	claimsKey = "claims"
	userKey   = "user"
)

// Guard holds the route protection middlewares.
type Guard struct {
	Tokens *tokens.Issuer
	Auth   *service.AuthService
}

// ProtectRoute requires a valid access cookie whose subject still exists
// and attaches that user to the context.
func (g *Guard) ProtectRoute() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "cookie:" + tokens.AccessCookie,
		ParseTokenFunc: func(_ echo.Context, raw string) (any, error) {
			return g.Tokens.ParseAccess(raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "protect_route")
			if ck, cerr := c.Cookie(tokens.AccessCookie); cerr != nil || ck.Value == "" {
				l.Warn("auth_failed", "status", 401, "reason", "no access token provided")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - No access token provided")
			}
			if errors.Is(err, jwt.ErrTokenExpired) {
				l.Warn("auth_failed", "status", 401, "reason", "access token expired")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Access token expired")
			}
			l.Warn("auth_failed", "status", 401, "reason", "invalid access token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Invalid access token")
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(g.loadUser(next))
	}
}

func (g *Guard) loadUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "protect_route")

		claims, ok := c.Get(claimsKey).(*tokens.AccessClaims)
		if !ok {
			l.Error("auth_failed", "status", 500, "reason", "claims missing from context")
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		user, err := g.Auth.Authenticate(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				l.Warn("auth_failed", "status", 401, "reason", "user not found", "user_id", claims.Subject)
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}
			l.Error("auth_failed", "status", 500, "reason", "cannot load user", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		c.Set(userKey, user)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", user.ID))))
		return next(c)
	}
}

// AdminRoute must run after ProtectRoute.
func (g *Guard) AdminRoute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			logging.FromContext(c.Request().Context()).Warn("admin_required", "status", 403)
			return echo.NewHTTPError(http.StatusForbidden, "Access denied - Admin only")
		}
		return next(c)
	}
}

// CurrentUser returns the user attached by ProtectRoute, or nil.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}

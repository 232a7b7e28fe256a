package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

// userView is the public projection of a user.
type userView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewUser(u *models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies Cookies
}

func (h *AuthHTTP) setSession(c echo.Context, pair *tokens.Pair) {
	c.SetCookie(h.Cookies.Access(pair.AccessToken))
	c.SetCookie(h.Cookies.Refresh(pair.RefreshToken))
}

func (h *AuthHTTP) clearSession(c echo.Context) {
	for _, ck := range h.Cookies.Clear() {
		c.SetCookie(ck)
	}
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		l.Warn("signup_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	res, err := h.Svc.Signup(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return fail(l, "signup_failed", err, "cannot create user")
	}
	h.setSession(c, res.Tokens)

	l.Info("signup_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    viewUser(res.User),
		"message": "User created successfully",
	})
}

func (h *AuthHTTP) Signin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signin")

	var req transport.SigninRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		l.Warn("signin_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	res, err := h.Svc.Signin(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "signin_failed", err, "cannot sign in")
	}
	h.setSession(c, res.Tokens)

	l.Info("signin_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, viewUser(res.User))
}

func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh_token")

	var raw string
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		raw = ck.Value
	}

	access, _, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return fail(l, "refresh_failed", err, "cannot refresh token")
	}
	c.SetCookie(h.Cookies.Access(access))

	l.Info("refresh_successful")
	return c.JSON(http.StatusOK, echo.Map{"message": "Token refreshed successfully"})
}

// Logout revokes the session named by the refresh cookie or, failing that,
// the userId body field. Cookies are cleared in every outcome.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var raw string
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil && ck.Value != "" {
		raw = ck.Value
	} else {
		var req transport.LogoutRequest
		if err := c.Bind(&req); err == nil {
			raw = req.UserID
		}
	}

	err := h.Svc.Logout(ctx, raw)
	h.clearSession(c)
	if err != nil {
		return fail(l, "logout_failed", err, "cannot revoke refresh token")
	}

	l.Info("logout_successful")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	return c.JSON(http.StatusOK, viewUser(CurrentUser(c)))
}

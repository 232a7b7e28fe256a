package httpserver

import (
	"net/http"
	"time"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

// Cookies builds the session cookies. Secure is set in production only so
// the API works over plain HTTP during development.
type Cookies struct {
	Secure bool
}

func (k Cookies) create(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (k Cookies) delete(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (k Cookies) Access(token string) *http.Cookie {
	return k.create(tokens.AccessCookie, token, tokens.AccessTTL)
}

func (k Cookies) Refresh(token string) *http.Cookie {
	return k.create(tokens.RefreshCookie, token, tokens.RefreshTTL)
}

func (k Cookies) Clear() []*http.Cookie {
	return []*http.Cookie{k.delete(tokens.AccessCookie), k.delete(tokens.RefreshCookie)}
}

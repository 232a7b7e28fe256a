package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUpstream, http.StatusBadGateway},
}

// fail logs err under event and converts it to an HTTP error. Client errors
// carry the service message; server errors carry only fallback.
func fail(l *slog.Logger, event string, err error, fallback string) error {
	for _, s := range statusBySentinel {
		if !errors.Is(err, s.err) {
			continue
		}
		if s.status >= http.StatusInternalServerError {
			l.Error(event, "status", s.status, "reason", fallback, "error", err)
			return echo.NewHTTPError(s.status, fallback)
		}
		msg := publicMessage(err, s.err)
		l.Warn(event, "status", s.status, "reason", msg, "error", err)
		return echo.NewHTTPError(s.status, msg)
	}
	l.Error(event, "status", http.StatusInternalServerError, "reason", fallback, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, fallback)
}

// publicMessage strips the trailing sentinel from a wrapped service error.
func publicMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" || msg == sentinel.Error() {
		return http.StatusText(statusOf(sentinel))
	}
	return msg
}

func statusOf(sentinel error) int {
	for _, s := range statusBySentinel {
		if s.err == sentinel {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {"message": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"message": msg})
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AnalyticsHTTP struct {
	Svc *service.AnalyticsService
}

func (h *AnalyticsHTTP) GetAnalytics(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "analytics.get")

	a, err := h.Svc.Analytics(ctx)
	if err != nil {
		return fail(l, "get_analytics_failed", err, "cannot compute analytics")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"analyticsData":  a.Data,
		"dailySalesData": a.Daily,
	})
}

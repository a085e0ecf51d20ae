package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/audit"
)

type AuditHTTP struct {
	Trail *audit.Trail
}

// Search queries the audit trail by username or action.
func (h *AuditHTTP) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is empty")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	total, entries, err := h.Trail.Search(c.Request().Context(), query, (page-1)*size, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "audit search unavailable")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total":   total,
		"entries": entries,
	})
}

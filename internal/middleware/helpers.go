package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/models"
)

func CurrentUser(c echo.Context) *models.User {
	if v, ok := c.Get(CtxUser).(*models.User); ok {
		return v
	}
	return nil
}

func CurrentUsername(c echo.Context) string {
	if v, ok := c.Get(CtxUsername).(string); ok {
		return v
	}
	return ""
}

func CurrentAccessToken(c echo.Context) string {
	if v, ok := c.Get(CtxAccessToken).(string); ok {
		return v
	}
	return ""
}

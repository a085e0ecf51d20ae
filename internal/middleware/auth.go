package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/service"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	CtxUsername    = "username"
	CtxUser        = "user"
	CtxAccessToken = "access_token"
)

type Auth struct {
	Sessions   *service.SessionManager
	Authorizer *service.Authorizer
}

// RequireAuth accepts only a structurally valid access token whose session
// row is still live. Structural validity alone is not enough: logout and
// eviction must take effect before the token's embedded expiry.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		v, err := m.Sessions.Validate(c.Request().Context(), token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if !v.Live {
			return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
		}

		c.Set(CtxUsername, v.User.Username)
		c.Set(CtxUser, v.User)
		c.Set(CtxAccessToken, token)
		return next(c)
	}
}

// RequirePermission gates a route on one permission name. It runs after
// RequireAuth and decides off the role closure loaded there.
func (m *Auth) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			if !m.Authorizer.AuthorizeUser(user, permission) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permission")
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/middleware"
	"github.com/avoronov/passport/internal/service"
)

type UserHTTP struct {
	Users    *service.UserService
	Sessions *service.SessionManager
}

func (h *UserHTTP) Profile(c echo.Context) error {
	user, err := h.Users.Profile(c.Request().Context(), middleware.CurrentUsername(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) ChangePassword(c echo.Context) error {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	err := h.Users.ChangePassword(c.Request().Context(), middleware.CurrentUsername(c), req.OldPassword, req.NewPassword)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

func (h *UserHTTP) Devices(c echo.Context) error {
	devices, err := h.Sessions.ActiveDevices(c.Request().Context(), middleware.CurrentAccessToken(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, devices)
}

func (h *UserHTTP) KickDevice(c echo.Context) error {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id missing")
	}
	if err := h.Sessions.KickDevice(c.Request().Context(), middleware.CurrentAccessToken(c), sessionID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "device logged out"})
}

func (h *UserHTTP) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	users, total, err := h.Users.List(c.Request().Context(), page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"users": users,
	})
}

func (h *UserHTTP) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	user, err := h.Users.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) AssignRoles(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req struct {
		RoleIDs []uint `json:"role_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Users.AssignRoles(c.Request().Context(), uint(id), req.RoleIDs); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "roles assigned"})
}

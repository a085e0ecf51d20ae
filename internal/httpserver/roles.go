package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/service"
)

type RoleHTTP struct {
	Roles *service.RoleService
}

type roleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *RoleHTTP) Create(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	role, err := h.Roles.Create(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RoleHTTP) Update(c echo.Context) error {
	id, err := roleID(c)
	if err != nil {
		return err
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	role, err := h.Roles.Update(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RoleHTTP) Delete(c echo.Context) error {
	id, err := roleID(c)
	if err != nil {
		return err
	}
	if err := h.Roles.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role deleted"})
}

func (h *RoleHTTP) Get(c echo.Context) error {
	id, err := roleID(c)
	if err != nil {
		return err
	}
	role, err := h.Roles.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RoleHTTP) List(c echo.Context) error {
	roles, err := h.Roles.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *RoleHTTP) ListPermissions(c echo.Context) error {
	perms, err := h.Roles.ListPermissions(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, perms)
}

func (h *RoleHTTP) AssignPermissions(c echo.Context) error {
	id, err := roleID(c)
	if err != nil {
		return err
	}
	var req struct {
		PermissionIDs []uint `json:"permission_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Roles.AssignPermissions(c.Request().Context(), id, req.PermissionIDs); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "permissions assigned"})
}

func roleID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}
	return uint(id), nil
}

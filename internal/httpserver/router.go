package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/middleware"
	"github.com/avoronov/passport/internal/perm"
)

type Deps struct {
	Auth   *AuthHTTP
	Users  *UserHTTP
	Roles  *RoleHTTP
	Audit  *AuditHTTP
	AuthMW *middleware.Auth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/send-code", d.Auth.SendCode)
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh-token", d.Auth.Refresh)
	auth.POST("/check-token", d.Auth.CheckToken)
	auth.GET("/public-key", d.Auth.PublicKey)
	auth.POST("/forgot-password", d.Auth.ForgotPassword)
	auth.POST("/reset-password", d.Auth.ResetPassword)

	private := v1.Group("", d.AuthMW.RequireAuth)

	private.POST("/auth/logout", d.Auth.Logout)
	private.POST("/auth/logout-all", d.Auth.LogoutAll)

	users := private.Group("/users")
	users.GET("/profile", d.Users.Profile)
	users.POST("/change-password", d.Users.ChangePassword)
	users.GET("/devices", d.Users.Devices)
	users.DELETE("/devices/:sessionID", d.Users.KickDevice)
	users.GET("", d.Users.List, d.AuthMW.RequirePermission(perm.UserView))
	users.GET("/:id", d.Users.GetByID, d.AuthMW.RequirePermission(perm.UserView))
	users.POST("/:id/roles", d.Users.AssignRoles, d.AuthMW.RequirePermission(perm.RoleAssign))

	roles := private.Group("/roles")
	roles.GET("", d.Roles.List, d.AuthMW.RequirePermission(perm.RoleView))
	roles.GET("/:id", d.Roles.Get, d.AuthMW.RequirePermission(perm.RoleView))
	roles.POST("", d.Roles.Create, d.AuthMW.RequirePermission(perm.RoleCreate))
	roles.PUT("/:id", d.Roles.Update, d.AuthMW.RequirePermission(perm.RoleUpdate))
	roles.DELETE("/:id", d.Roles.Delete, d.AuthMW.RequirePermission(perm.RoleDelete))
	roles.POST("/:id/permissions", d.Roles.AssignPermissions, d.AuthMW.RequirePermission(perm.RoleUpdate))

	private.GET("/permissions", d.Roles.ListPermissions, d.AuthMW.RequirePermission(perm.PermView))

	if d.Audit != nil {
		private.GET("/audit", d.Audit.Search, d.AuthMW.RequirePermission(perm.SysConfigView))
	}
}

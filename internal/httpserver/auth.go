package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/passport/internal/keys"
	"github.com/avoronov/passport/internal/logging"
	"github.com/avoronov/passport/internal/middleware"
	"github.com/avoronov/passport/internal/service"
)

type AuthHTTP struct {
	Sessions *service.SessionManager
	Users    *service.UserService
	Keys     *keys.KeyPair
}

func (h *AuthHTTP) SendCode(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Users.SendVerificationCode(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Users.Register(ctx, req.Username, req.Email, req.Password, req.Code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"username": user.Username,
		"email":    user.Email,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Sessions.Login(ctx, req.Username, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loginResponse(res))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token missing")
	}

	res, err := h.Sessions.Refresh(c.Request().Context(), req.RefreshToken, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loginResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	if err := h.Sessions.Logout(c.Request().Context(), middleware.CurrentAccessToken(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) LogoutAll(c echo.Context) error {
	if err := h.Sessions.LogoutAll(c.Request().Context(), middleware.CurrentAccessToken(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "all devices logged out"})
}

// CheckToken validates signature and expiry, then asks the session registry
// whether the token is still live. Read-only.
func (h *AuthHTTP) CheckToken(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusOK, echo.Map{"valid": false, "reason": "token is empty"})
	}

	v, err := h.Sessions.Validate(c.Request().Context(), req.Token)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"valid": false, "reason": err.Error()})
	}
	if !v.Live {
		return c.JSON(http.StatusOK, echo.Map{"valid": false, "reason": "token revoked"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":      true,
		"username":   v.Claims.Username(),
		"expires_at": v.Claims.ExpiresAt.Time,
	})
}

// PublicKey exposes the verification key so other trust domains can check
// signatures without the private key.
func (h *AuthHTTP) PublicKey(c echo.Context) error {
	pemStr, err := h.Keys.PublicPEM()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"algorithm": "RS256",
		"publicKey": pemStr,
	})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Users.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Users.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset"})
}

func loginResponse(res *service.LoginResult) echo.Map {
	return echo.Map{
		"username":      res.Username,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"access_exp":    res.AccessExp,
		"refresh_exp":   res.RefreshExp,
	}
}

package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avoronov/passport/internal/hash"
	"github.com/avoronov/passport/internal/keys"
	"github.com/avoronov/passport/internal/middleware"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
	"github.com/avoronov/passport/internal/service"
	"github.com/avoronov/passport/internal/tokens"
	"github.com/avoronov/passport/internal/verification"
)

type testServer struct {
	Echo *echo.Echo
	Repo *repo.GormRepo
	Keys *keys.KeyPair
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a pooled second connection would see a different :memory: database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	kp, err := keys.Generate()
	require.NoError(t, err)

	r := repo.New(db)
	sessions := &service.SessionManager{
		Repo:   r,
		Signer: tokens.NewSigner(kp, 2*time.Hour, 24*time.Hour),
	}
	verif := &verification.Service{Repo: r}
	users := &service.UserService{Repo: r, Sessions: sessions, Verification: verif}
	authorizer := &service.Authorizer{Repo: r}
	roles := &service.RoleService{Repo: r}

	e := echo.New()
	Register(e, &Deps{
		Auth:   &AuthHTTP{Sessions: sessions, Users: users, Keys: kp},
		Users:  &UserHTTP{Users: users, Sessions: sessions},
		Roles:  &RoleHTTP{Roles: roles},
		AuthMW: &middleware.Auth{Sessions: sessions, Authorizer: authorizer},
	})

	return &testServer{Echo: e, Repo: r, Keys: kp}
}

func (s *testServer) createUser(t *testing.T, username, password string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
	}
	require.NoError(t, s.Repo.CreateUser(context.Background(), user))
	return user
}

// grantPermission adds the permission to the user via a dedicated role,
// keeping whatever roles the user already holds.
func (s *testServer) grantPermission(t *testing.T, userID uint, permName string) {
	t.Helper()
	ctx := context.Background()

	p := models.Permission{Name: permName, Module: "TEST"}
	require.NoError(t, s.Repo.DB.Create(&p).Error)

	role := &models.Role{Name: permName + "_HOLDER"}
	require.NoError(t, s.Repo.CreateRole(ctx, role))
	require.NoError(t, s.Repo.ReplaceRolePermissions(ctx, role.ID, []uint{p.ID}))

	user, err := s.Repo.FindUserByID(ctx, userID)
	require.NoError(t, err)
	roleIDs := []uint{role.ID}
	for _, r := range user.Roles {
		roleIDs = append(roleIDs, r.ID)
	}
	require.NoError(t, s.Repo.ReplaceUserRoles(ctx, userID, roleIDs))
}

func (s *testServer) request(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return s.requestUA(t, method, path, token, "test-agent", body)
}

func (s *testServer) requestUA(t *testing.T, method, path, token, userAgent string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func (s *testServer) login(t *testing.T, username, password string) (access, refresh string) {
	t.Helper()
	return s.loginDevice(t, username, password, "test-agent")
}

// loginDevice logs in with a distinct User-Agent so two sessions of one
// user can coexist; identical agents evict each other.
func (s *testServer) loginDevice(t *testing.T, username, password, userAgent string) (access, refresh string) {
	t.Helper()

	rec, body := s.requestUA(t, http.MethodPost, "/api/v1/auth/login", "", userAgent, map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	access, _ = body["access_token"].(string)
	refresh, _ = body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

package seed

import (
	"context"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avoronov/passport/internal/hash"
	"github.com/avoronov/passport/internal/logging"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a pooled second connection would see a different :memory: database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return repo.New(db)
}

func discard() *slog.Logger {
	return logging.Discard()
}

func TestRun_SeedsCatalogAndRoles(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, r, Admin{}, discard()))

	perms, err := r.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(catalog))

	roles, err := r.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	byName := map[string]models.Role{}
	for _, role := range roles {
		byName[role.Name] = role
	}
	assert.Len(t, byName[RoleAdmin].Permissions, len(catalog))
	assert.Empty(t, byName[RoleUser].Permissions)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, r, Admin{}, discard()))
	require.NoError(t, Run(ctx, r, Admin{}, discard()))

	perms, err := r.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(catalog))

	roles, err := r.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestRun_SeedsAdminAccount(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	admin := Admin{Username: "root", Email: "root@example.com", Password: "toor"}

	require.NoError(t, Run(ctx, r, admin, discard()))

	user, err := r.FindUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(user.PasswordHash, "toor"))
	require.Len(t, user.Roles, 1)
	assert.Equal(t, RoleAdmin, user.Roles[0].Name)
	assert.Len(t, user.Roles[0].Permissions, len(catalog))

	// second run leaves the existing account alone
	require.NoError(t, Run(ctx, r, Admin{Username: "root", Password: "different"}, discard()))
	user, err = r.FindUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(user.PasswordHash, "toor"))
}

func TestRun_NoPasswordSkipsAdmin(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, r, Admin{Username: "root"}, discard()))

	_, err := r.FindUserByUsername(ctx, "root")
	assert.Error(t, err)
}

package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/models"
)

func TestCreateRole_DuplicateName(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateRole(ctx, &models.Role{Name: "AUDITOR"}))

	err := r.CreateRole(ctx, &models.Role{Name: "AUDITOR"})
	assert.ErrorIs(t, err, domain.ErrRoleExists)
}

func TestUpdateRole(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	role := &models.Role{Name: "AUDITOR", Description: "old"}
	require.NoError(t, r.CreateRole(ctx, role))
	require.NoError(t, r.CreateRole(ctx, &models.Role{Name: "OPERATOR"}))

	updated, err := r.UpdateRole(ctx, role.ID, "REVIEWER", "new")
	require.NoError(t, err)
	assert.Equal(t, "REVIEWER", updated.Name)
	assert.Equal(t, "new", updated.Description)

	// renaming onto an existing role is a conflict
	_, err = r.UpdateRole(ctx, role.ID, "OPERATOR", "")
	assert.ErrorIs(t, err, domain.ErrRoleExists)

	_, err = r.UpdateRole(ctx, 9999, "X", "")
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}

func TestReplaceRolePermissions_FullReplacement(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	p1 := models.Permission{Name: "USER_VIEW", Module: "USER_MANAGEMENT"}
	p2 := models.Permission{Name: "USER_CREATE", Module: "USER_MANAGEMENT"}
	p3 := models.Permission{Name: "ROLE_VIEW", Module: "ROLE_MANAGEMENT"}
	require.NoError(t, r.DB.Create(&p1).Error)
	require.NoError(t, r.DB.Create(&p2).Error)
	require.NoError(t, r.DB.Create(&p3).Error)

	role := &models.Role{Name: "AUDITOR"}
	require.NoError(t, r.CreateRole(ctx, role))

	require.NoError(t, r.ReplaceRolePermissions(ctx, role.ID, []uint{p1.ID, p2.ID}))

	loaded, err := r.FindRoleByID(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Permissions, 2)

	// the new set supersedes, never merges
	require.NoError(t, r.ReplaceRolePermissions(ctx, role.ID, []uint{p3.ID}))
	loaded, err = r.FindRoleByID(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Permissions, 1)
	assert.Equal(t, "ROLE_VIEW", loaded.Permissions[0].Name)

	// empty set clears membership entirely
	require.NoError(t, r.ReplaceRolePermissions(ctx, role.ID, nil))
	loaded, err = r.FindRoleByID(ctx, role.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Permissions)
}

func TestReplaceRolePermissions_UnknownPermission(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	role := &models.Role{Name: "AUDITOR"}
	require.NoError(t, r.CreateRole(ctx, role))

	err := r.ReplaceRolePermissions(ctx, role.ID, []uint{12345})
	assert.ErrorIs(t, err, domain.ErrPermissionNotFound)
}

func TestReplaceUserRoles_FullReplacement(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")

	r1 := &models.Role{Name: "AUDITOR"}
	r2 := &models.Role{Name: "OPERATOR"}
	require.NoError(t, r.CreateRole(ctx, r1))
	require.NoError(t, r.CreateRole(ctx, r2))

	require.NoError(t, r.ReplaceUserRoles(ctx, user.ID, []uint{r1.ID, r2.ID}))

	loaded, err := r.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, loaded.Roles, 2)

	require.NoError(t, r.ReplaceUserRoles(ctx, user.ID, []uint{r2.ID}))
	loaded, err = r.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, loaded.Roles, 1)
	assert.Equal(t, "OPERATOR", loaded.Roles[0].Name)

	require.NoError(t, r.ReplaceUserRoles(ctx, user.ID, nil))
	loaded, err = r.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, loaded.Roles)
}

func TestDeleteRole_ClearsMemberships(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")

	role := &models.Role{Name: "AUDITOR"}
	require.NoError(t, r.CreateRole(ctx, role))
	require.NoError(t, r.ReplaceUserRoles(ctx, user.ID, []uint{role.ID}))

	require.NoError(t, r.DeleteRole(ctx, role.ID))

	loaded, err := r.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, loaded.Roles)

	err = r.DeleteRole(ctx, role.ID)
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}

func TestCreateUser_Duplicates(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	createTestUser(t, r, "alice")

	err := r.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	err = r.CreateUser(ctx, &models.User{Username: "bob", Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

package service

import (
	"context"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
)

// Authorizer answers grant/deny for a resolved principal. The role and
// permission closure is loaded eagerly in one repository call, so a
// decision never triggers hidden per-role queries.
type Authorizer struct {
	Repo *repo.GormRepo
}

func (a *Authorizer) ResolveRoles(ctx context.Context, username string) ([]models.Role, error) {
	user, err := a.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}

// ResolvePermissions is the union of permission names across all of the
// user's roles.
func (a *Authorizer) ResolvePermissions(ctx context.Context, username string) (map[string]bool, error) {
	roles, err := a.ResolveRoles(ctx, username)
	if err != nil {
		return nil, err
	}
	perms := make(map[string]bool)
	for _, role := range roles {
		for _, p := range role.Permissions {
			perms[p.Name] = true
		}
	}
	return perms, nil
}

func (a *Authorizer) Authorize(ctx context.Context, username, permission string) (bool, error) {
	perms, err := a.ResolvePermissions(ctx, username)
	if err != nil {
		return false, err
	}
	return perms[permission], nil
}

// Require is the request-gate form: deny comes back as ErrPermissionDenied.
func (a *Authorizer) Require(ctx context.Context, username, permission string) error {
	ok, err := a.Authorize(ctx, username, permission)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPermissionDenied
	}
	return nil
}

// AuthorizeUser decides off an already-loaded user, for callers that hold
// the closure from Validate.
func (a *Authorizer) AuthorizeUser(user *models.User, permission string) bool {
	for _, role := range user.Roles {
		for _, p := range role.Permissions {
			if p.Name == permission {
				return true
			}
		}
	}
	return false
}

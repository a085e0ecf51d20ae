// Package seed loads the immutable permission catalog, the built-in roles
// and the initial admin account. Seeding is idempotent: existing rows are
// left alone.
package seed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/hash"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/perm"
	"github.com/avoronov/passport/internal/repo"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type catalogEntry struct {
	name        string
	description string
	module      string
}

var catalog = []catalogEntry{
	{perm.UserView, "View user details and lists", "USER_MANAGEMENT"},
	{perm.UserCreate, "Create new users", "USER_MANAGEMENT"},
	{perm.UserUpdate, "Edit user details", "USER_MANAGEMENT"},
	{perm.UserDelete, "Delete users", "USER_MANAGEMENT"},
	{perm.RoleView, "View roles and permissions", "ROLE_MANAGEMENT"},
	{perm.RoleCreate, "Create new roles", "ROLE_MANAGEMENT"},
	{perm.RoleUpdate, "Edit roles", "ROLE_MANAGEMENT"},
	{perm.RoleDelete, "Delete roles", "ROLE_MANAGEMENT"},
	{perm.RoleAssign, "Assign roles to users", "ROLE_MANAGEMENT"},
	{perm.PermView, "View the permission catalog", "ROLE_MANAGEMENT"},
	{perm.DeviceView, "View active sessions and devices", "DEVICE_MANAGEMENT"},
	{perm.DeviceKick, "Terminate active sessions", "DEVICE_MANAGEMENT"},
	{perm.SysConfigView, "View system configuration", "SYSTEM_CONFIG"},
	{perm.SysConfigEdit, "Edit system configuration", "SYSTEM_CONFIG"},
}

type Admin struct {
	Username string
	Email    string
	Password string
}

func Run(ctx context.Context, r *repo.GormRepo, admin Admin, l *slog.Logger) error {
	if err := seedPermissionsAndRoles(ctx, r, l); err != nil {
		return err
	}
	return seedAdmin(ctx, r, admin, l)
}

func seedPermissionsAndRoles(ctx context.Context, r *repo.GormRepo, l *slog.Logger) error {
	existing, err := r.ListPermissions(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.Name] = true
	}

	for _, entry := range catalog {
		if known[entry.name] {
			continue
		}
		p := models.Permission{Name: entry.name, Description: entry.description, Module: entry.module}
		if err := r.DB.WithContext(ctx).Create(&p).Error; err != nil {
			return err
		}
		l.Info("seeded permission", "name", entry.name)
	}

	all, err := r.ListPermissions(ctx)
	if err != nil {
		return err
	}
	allIDs := make([]uint, 0, len(all))
	for _, p := range all {
		allIDs = append(allIDs, p.ID)
	}

	adminRole, err := ensureRole(ctx, r, RoleAdmin, "Full access to every operation", l)
	if err != nil {
		return err
	}
	if err := r.ReplaceRolePermissions(ctx, adminRole.ID, allIDs); err != nil {
		return err
	}

	// USER carries no permissions; a role with an empty set is valid.
	_, err = ensureRole(ctx, r, RoleUser, "Default role for registered accounts", l)
	return err
}

func ensureRole(ctx context.Context, r *repo.GormRepo, name, description string, l *slog.Logger) (*models.Role, error) {
	role := &models.Role{Name: name, Description: description}
	err := r.CreateRole(ctx, role)
	if err == nil {
		l.Info("seeded role", "name", name)
		return role, nil
	}
	if !errors.Is(err, domain.ErrRoleExists) {
		return nil, err
	}

	roles, err := r.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].Name == name {
			return &roles[i], nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func seedAdmin(ctx context.Context, r *repo.GormRepo, admin Admin, l *slog.Logger) error {
	if admin.Password == "" {
		l.Warn("admin password not configured, skipping admin seed")
		return nil
	}

	if _, err := r.FindUserByUsername(ctx, admin.Username); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	pwHash, err := hash.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	user := &models.User{Username: admin.Username, Email: admin.Email, PasswordHash: pwHash}
	if err := r.CreateUser(ctx, user); err != nil {
		return err
	}

	adminRole, err := ensureRole(ctx, r, RoleAdmin, "Full access to every operation", l)
	if err != nil {
		return err
	}
	if err := r.ReplaceUserRoles(ctx, user.ID, []uint{adminRole.ID}); err != nil {
		return err
	}

	l.Info("seeded admin account", "username", admin.Username)
	return nil
}

package service

import (
	"context"
	"strings"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
)

type RoleService struct {
	Repo *repo.GormRepo
}

func (s *RoleService) Create(ctx context.Context, name, description string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrValidation
	}
	role := &models.Role{Name: name, Description: description}
	if err := s.Repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Update(ctx context.Context, id uint, name, description string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrValidation
	}
	return s.Repo.UpdateRole(ctx, id, name, description)
}

func (s *RoleService) Delete(ctx context.Context, id uint) error {
	return s.Repo.DeleteRole(ctx, id)
}

func (s *RoleService) Get(ctx context.Context, id uint) (*models.Role, error) {
	return s.Repo.FindRoleByID(ctx, id)
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.Repo.ListRoles(ctx)
}

func (s *RoleService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return s.Repo.ListPermissions(ctx)
}

// AssignPermissions replaces the role's permission set, never merges.
func (s *RoleService) AssignPermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	return s.Repo.ReplaceRolePermissions(ctx, roleID, permissionIDs)
}

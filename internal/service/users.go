package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/events"
	"github.com/avoronov/passport/internal/hash"
	"github.com/avoronov/passport/internal/logging"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
	"github.com/avoronov/passport/internal/seed"
	"github.com/avoronov/passport/internal/verification"
)

type UserService struct {
	Repo         *repo.GormRepo
	Sessions     *SessionManager
	Verification *verification.Service
	Producer     *events.Producer
}

// Register creates an account after the emailed code checks out. New
// accounts get the default USER role.
func (s *UserService) Register(ctx context.Context, username, email, password, code string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register", "username", username)

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrValidation
	}

	if err := s.Verification.Consume(ctx, email, code); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.assignDefaultRole(ctx, user); err != nil {
		l.Warn("default role assignment failed", "error", err)
	}

	l.Info("user_registered")
	s.publish(ctx, username, map[string]any{
		"type":     events.TypeUserRegistered,
		"username": username,
		"email":    email,
	})
	return user, nil
}

// SendVerificationCode backs both registration and forgot-password. For
// resets the account must exist; the caller sees the same success either
// way so the endpoint does not confirm which emails are registered.
func (s *UserService) SendVerificationCode(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrValidation
	}
	return s.Verification.Issue(ctx, email)
}

func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrValidation
	}
	if _, err := s.Repo.FindUserByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// do not reveal which addresses exist
			return nil
		}
		return err
	}
	return s.Verification.Issue(ctx, email)
}

// ResetPassword swaps the hash after the code checks out and kills every
// live session of the account.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "user.reset_password")

	if email == "" || newPassword == "" {
		return domain.ErrValidation
	}
	if err := s.Verification.Consume(ctx, email, code); err != nil {
		return err
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePasswordHash(ctx, user.ID, pwHash); err != nil {
		return err
	}
	if err := s.Sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}

	l.Info("password_reset", "username", user.Username)
	return nil
}

// ChangePassword is the authenticated variant: the current password must
// verify first. All sessions die afterwards, the caller logs in again.
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "user.change_password", "username", username)

	if newPassword == "" {
		return domain.ErrValidation
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		return domain.ErrInvalidCredentials
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePasswordHash(ctx, user.ID, pwHash); err != nil {
		return err
	}
	if err := s.Sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}

	l.Info("password_changed")
	return nil
}

func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	return s.Repo.FindUserByUsername(ctx, username)
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.Repo.FindUserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, page, size int) ([]models.User, int64, error) {
	return s.Repo.ListUsers(ctx, page, size)
}

// AssignRoles replaces the user's role set. Full replacement: the caller
// passes the complete desired set.
func (s *UserService) AssignRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	return s.Repo.ReplaceUserRoles(ctx, userID, roleIDs)
}

func (s *UserService) assignDefaultRole(ctx context.Context, user *models.User) error {
	roles, err := s.Repo.ListRoles(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if role.Name == seed.RoleUser {
			return s.Repo.ReplaceUserRoles(ctx, user.ID, []uint{role.ID})
		}
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, events.Topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

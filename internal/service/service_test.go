package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avoronov/passport/internal/hash"
	"github.com/avoronov/passport/internal/keys"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
	"github.com/avoronov/passport/internal/tokens"
	"github.com/avoronov/passport/internal/verification"
)

type testEnv struct {
	Repo         *repo.GormRepo
	Sessions     *SessionManager
	Users        *UserService
	Authorizer   *Authorizer
	Verification *verification.Service
}

func newTestEnv(t *testing.T) *testEnv {
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
	sessions := &SessionManager{
		Repo:   r,
		Signer: tokens.NewSigner(kp, 2*time.Hour, 24*time.Hour),
	}
	verif := &verification.Service{Repo: r}
	users := &UserService{
		Repo:         r,
		Sessions:     sessions,
		Verification: verif,
	}

	return &testEnv{
		Repo:         r,
		Sessions:     sessions,
		Users:        users,
		Authorizer:   &Authorizer{Repo: r},
		Verification: verif,
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
	}
	require.NoError(t, e.Repo.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) storeCode(t *testing.T, email, code string) {
	t.Helper()

	vc := &models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(verification.CodeTTL),
	}
	require.NoError(t, e.Repo.CreateVerificationCode(context.Background(), vc))
}

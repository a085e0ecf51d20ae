// Package verification issues the short-lived codes gating registration
// and password reset. Delivery is someone else's job: the service stores
// the code and publishes an event for the mailer to pick up.
package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/avoronov/passport/internal/events"
	"github.com/avoronov/passport/internal/logging"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
)

const CodeTTL = 60 * time.Second

type Service struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
}

// Issue stores a fresh 6-digit code for the email and announces it.
func (s *Service) Issue(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}

	vc := &models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(CodeTTL),
	}
	if err := s.Repo.CreateVerificationCode(ctx, vc); err != nil {
		return err
	}

	if s.Producer != nil {
		event := map[string]any{
			"type":       events.TypeVerificationCode,
			"email":      email,
			"code":       code,
			"expires_at": vc.ExpiresAt,
		}
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Producer.PublishEvent(pubCtx, events.Topic, email, event); err != nil {
			logging.FromContext(ctx).Error("kafka publish error", "error", err)
		}
	}
	return nil
}

// Consume burns the code; wrong, expired or reused codes all read the same
// to the caller.
func (s *Service) Consume(ctx context.Context, email, code string) error {
	return s.Repo.ConsumeVerificationCode(ctx, email, code)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

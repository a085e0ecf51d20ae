package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/models"
)

func (r *GormRepo) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	return r.DB.WithContext(ctx).Create(code).Error
}

// ConsumeVerificationCode validates and burns the newest unused code for the
// email. Single use: the consuming update is conditional, so a code can be
// redeemed at most once even under concurrent attempts.
func (r *GormRepo) ConsumeVerificationCode(ctx context.Context, email, code string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vc models.VerificationCode
		err := tx.Where("email = ? AND code = ? AND used = ?", email, code, false).
			Order("created_at DESC").
			First(&vc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCodeInvalid
			}
			return err
		}
		if !vc.ExpiresAt.After(time.Now()) {
			return domain.ErrCodeInvalid
		}

		result := tx.Model(&models.VerificationCode{}).
			Where("id = ? AND used = ?", vc.ID, false).
			Update("used", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrCodeInvalid
		}
		return nil
	})
}

package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/models"
)

// markDead flips revoked and expired together. The WHERE clause doubles as
// an optimistic check: zero rows affected means the row was already dead,
// so of two racing invalidations exactly one wins.
func markDead(tx *gorm.DB, sessionIDs ...uint) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	result := tx.Model(&models.SessionToken{}).
		Where("id IN ? AND revoked = ? AND expired = ?", sessionIDs, false, false).
		Updates(map[string]any{"revoked": true, "expired": true})
	return result.RowsAffected, result.Error
}

func (r *GormRepo) FindSessionByAccessToken(ctx context.Context, token string) (*models.SessionToken, error) {
	return r.findSession(ctx, "access_token = ?", token)
}

func (r *GormRepo) FindSessionByRefreshToken(ctx context.Context, token string) (*models.SessionToken, error) {
	return r.findSession(ctx, "refresh_token = ?", token)
}

func (r *GormRepo) FindSessionBySessionID(ctx context.Context, sessionID string) (*models.SessionToken, error) {
	return r.findSession(ctx, "session_id = ?", sessionID)
}

func (r *GormRepo) findSession(ctx context.Context, query string, arg any) (*models.SessionToken, error) {
	var sess models.SessionToken
	if err := r.DB.WithContext(ctx).Where(query, arg).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (r *GormRepo) LiveSessionsForUser(ctx context.Context, userID uint) ([]models.SessionToken, error) {
	var sessions []models.SessionToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expired = ?", userID, false, false).
		Order("created_at").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSessionEvictingDevice inserts the new session and, in the same
// transaction, kills every live session of the user whose device info
// exactly matches. Two concurrent logins from one device cannot both keep
// their predecessor alive.
func (r *GormRepo) CreateSessionEvictingDevice(ctx context.Context, sess *models.SessionToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []models.SessionToken
		err := tx.Where("user_id = ? AND device_info = ? AND revoked = ? AND expired = ?",
			sess.UserID, sess.DeviceInfo, false, false).
			Find(&stale).Error
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(stale))
		for _, s := range stale {
			ids = append(ids, s.ID)
		}
		if _, err := markDead(tx, ids...); err != nil {
			return err
		}
		return tx.Create(sess).Error
	})
}

// RotateSession kills the session owning oldRefreshToken and inserts its
// replacement atomically. Refresh tokens are single-use: the loser of two
// concurrent rotations gets ErrTokenAlreadyDead.
func (r *GormRepo) RotateSession(ctx context.Context, oldRefreshToken string, next *models.SessionToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.SessionToken
		if err := tx.Where("refresh_token = ?", oldRefreshToken).First(&old).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTokenNotFound
			}
			return err
		}

		affected, err := markDead(tx, old.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrTokenAlreadyDead
		}

		return tx.Create(next).Error
	})
}

// MarkSessionDead transitions one row to dead; already-dead rows are a
// conflict, not a no-op.
func (r *GormRepo) MarkSessionDead(ctx context.Context, sess *models.SessionToken) error {
	affected, err := markDead(r.DB.WithContext(ctx), sess.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTokenAlreadyDead
	}
	sess.Revoked = true
	sess.Expired = true
	return nil
}

// MarkAllSessionsDead kills every live session of the user in one batch.
// An empty live set is a no-op.
func (r *GormRepo) MarkAllSessionsDead(ctx context.Context, userID uint) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&models.SessionToken{}).
		Where("user_id = ? AND revoked = ? AND expired = ?", userID, false, false).
		Updates(map[string]any{"revoked": true, "expired": true})
	return result.RowsAffected, result.Error
}

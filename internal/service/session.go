package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/avoronov/passport/internal/audit"
	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/events"
	"github.com/avoronov/passport/internal/hash"
	"github.com/avoronov/passport/internal/logging"
	"github.com/avoronov/passport/internal/models"
	"github.com/avoronov/passport/internal/repo"
	"github.com/avoronov/passport/internal/tokens"
)

// SessionManager owns every transition of a session row. Rows move from
// live to dead exactly once and are never resurrected or deleted; nothing
// else writes the revoked/expired pair.
type SessionManager struct {
	Repo     *repo.GormRepo
	Signer   *tokens.Signer
	Producer *events.Producer
	Audit    *audit.Trail
}

type LoginResult struct {
	Username     string
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type Device struct {
	SessionID  string    `json:"session_id"`
	IPAddress  string    `json:"ip_address"`
	DeviceInfo string    `json:"device_info"`
	CreatedAt  time.Time `json:"created_at"`
	IsCurrent  bool      `json:"is_current_session"`
}

// Validation is the read-only answer for a presented access token.
type Validation struct {
	Claims *tokens.Claims
	User   *models.User
	Live   bool
}

// Login checks credentials and issues a fresh pair. Any live session of the
// same user with an identical device-info string dies first, so repeated
// logins from one device cannot accumulate sessions.
func (m *SessionManager) Login(ctx context.Context, username, password, ipAddress, deviceInfo string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login", "username", username)

	if username == "" || password == "" {
		return nil, domain.ErrValidation
	}

	user, err := m.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	res, sess, err := m.issuePair(user, ipAddress, deviceInfo)
	if err != nil {
		return nil, err
	}
	if err := m.Repo.CreateSessionEvictingDevice(ctx, sess); err != nil {
		return nil, err
	}

	l.Info("login_successful", "session_id", sess.SessionID)
	m.notify(ctx, events.TypeUserLoggedIn, "login", user.Username, sess)
	return res, nil
}

// Refresh rotates the pair that owns the presented refresh token. The old
// row dies and a new live row is created atomically; a refresh token is
// usable at most once.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken, ipAddress, deviceInfo string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	claims, err := m.verify(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := m.Repo.FindUserByUsername(ctx, claims.Username())
	if err != nil {
		return nil, err
	}

	res, next, err := m.issuePair(user, ipAddress, deviceInfo)
	if err != nil {
		return nil, err
	}
	if err := m.Repo.RotateSession(ctx, refreshToken, next); err != nil {
		return nil, err
	}

	l.Info("refresh_successful", "username", user.Username, "session_id", next.SessionID)
	m.notify(ctx, events.TypeUserLoggedIn, "refresh", user.Username, next)
	return res, nil
}

// Logout kills the session owning the presented access token. A dead
// target is a conflict, reported as ErrTokenAlreadyDead.
func (m *SessionManager) Logout(ctx context.Context, accessToken string) error {
	l := logging.FromContext(ctx).With("svc", "session.logout")

	sess, claims, err := m.liveSession(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := m.Repo.MarkSessionDead(ctx, sess); err != nil {
		return err
	}

	l.Info("logout_successful", "username", claims.Username(), "session_id", sess.SessionID)
	m.notify(ctx, events.TypeSessionRevoked, "logout", claims.Username(), sess)
	return nil
}

// LogoutAll kills every live session of the presented token's user in one
// batch. The batch write is vacuous when nothing is live; that is not an
// error.
func (m *SessionManager) LogoutAll(ctx context.Context, accessToken string) error {
	l := logging.FromContext(ctx).With("svc", "session.logout_all")

	sess, claims, err := m.liveSession(ctx, accessToken)
	if err != nil {
		return err
	}
	count, err := m.Repo.MarkAllSessionsDead(ctx, sess.UserID)
	if err != nil {
		return err
	}

	l.Info("logout_all_successful", "username", claims.Username(), "sessions_revoked", count)
	m.notify(ctx, events.TypeSessionRevoked, "logout_all", claims.Username(), sess)
	return nil
}

// RevokeAllForUser is the administrative variant of LogoutAll used after
// password changes. Zero live sessions is a no-op.
func (m *SessionManager) RevokeAllForUser(ctx context.Context, userID uint) error {
	_, err := m.Repo.MarkAllSessionsDead(ctx, userID)
	return err
}

// KickDevice kills another session of the same user, addressed by its
// public session id. Targets of other users read as not found so session
// ids do not leak across accounts.
func (m *SessionManager) KickDevice(ctx context.Context, accessToken, sessionID string) error {
	l := logging.FromContext(ctx).With("svc", "session.kick", "target", sessionID)

	sess, claims, err := m.liveSession(ctx, accessToken)
	if err != nil {
		return err
	}

	target, err := m.Repo.FindSessionBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if target.UserID != sess.UserID {
		return domain.ErrTokenNotFound
	}
	if err := m.Repo.MarkSessionDead(ctx, target); err != nil {
		return err
	}

	l.Info("device_kicked", "username", claims.Username())
	m.notify(ctx, events.TypeSessionRevoked, "kick", claims.Username(), target)
	return nil
}

// Validate answers liveness and claims for an access token without
// changing any state.
func (m *SessionManager) Validate(ctx context.Context, accessToken string) (*Validation, error) {
	claims, err := m.verify(accessToken)
	if err != nil {
		return nil, err
	}

	sess, err := m.Repo.FindSessionByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := m.Repo.FindUserByUsername(ctx, claims.Username())
	if err != nil {
		return nil, err
	}

	return &Validation{Claims: claims, User: user, Live: sess.Live()}, nil
}

// ActiveDevices lists the live sessions of the presented token's user.
func (m *SessionManager) ActiveDevices(ctx context.Context, accessToken string) ([]Device, error) {
	sess, _, err := m.liveSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	sessions, err := m.Repo.LiveSessionsForUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(sessions))
	for _, s := range sessions {
		devices = append(devices, Device{
			SessionID:  s.SessionID,
			IPAddress:  s.IPAddress,
			DeviceInfo: s.DeviceInfo,
			CreatedAt:  s.CreatedAt,
			IsCurrent:  s.ID == sess.ID,
		})
	}
	return devices, nil
}

func (m *SessionManager) issuePair(user *models.User, ipAddress, deviceInfo string) (*LoginResult, *models.SessionToken, error) {
	now := time.Now()
	access, err := m.Signer.IssueAccess(user.Username)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := m.Signer.IssueRefresh(user.Username)
	if err != nil {
		return nil, nil, err
	}

	sess := &models.SessionToken{
		SessionID:    uuid.NewString(),
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user.ID,
		IPAddress:    ipAddress,
		DeviceInfo:   deviceInfo,
	}
	res := &LoginResult{
		Username:     user.Username,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    now.Add(m.Signer.AccessTTL()),
		RefreshExp:   now.Add(m.Signer.RefreshTTL()),
	}
	return res, sess, nil
}

// liveSession resolves the presented access token to its live session row.
func (m *SessionManager) liveSession(ctx context.Context, accessToken string) (*models.SessionToken, *tokens.Claims, error) {
	claims, err := m.verify(accessToken)
	if err != nil {
		return nil, nil, err
	}
	sess, err := m.Repo.FindSessionByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	if !sess.Live() {
		return nil, nil, domain.ErrTokenAlreadyDead
	}
	return sess, claims, nil
}

func (m *SessionManager) verify(tokenStr string) (*tokens.Claims, error) {
	claims, err := m.Signer.Verify(tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, tokens.ErrSignatureInvalid):
			return nil, domain.ErrTokenSignatureInvalid
		default:
			return nil, domain.ErrTokenMalformed
		}
	}
	return claims, nil
}

// notify fans a session transition out to kafka and the audit trail.
// Both are best-effort.
func (m *SessionManager) notify(ctx context.Context, eventType, action, username string, sess *models.SessionToken) {
	l := logging.FromContext(ctx)

	if m.Producer != nil {
		event := map[string]any{
			"type":       eventType,
			"action":     action,
			"username":   username,
			"session_id": sess.SessionID,
		}
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := m.Producer.PublishEvent(pubCtx, events.Topic, username, event); err != nil {
			l.Error("kafka publish error", "error", err)
		}
		cancel()
	}

	if m.Audit != nil {
		entry := audit.Entry{
			Username:   username,
			Action:     action,
			SessionID:  sess.SessionID,
			IPAddress:  sess.IPAddress,
			DeviceInfo: sess.DeviceInfo,
		}
		if err := m.Audit.Record(ctx, entry); err != nil {
			l.Error("audit record error", "error", err)
		}
	}
}

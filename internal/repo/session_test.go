package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/passport/internal/domain"
	"github.com/avoronov/passport/internal/models"
)

func newSession(userID uint, deviceInfo string) *models.SessionToken {
	id := uuid.NewString()
	return &models.SessionToken{
		SessionID:    id,
		AccessToken:  fmt.Sprintf("access-%s", id),
		RefreshToken: fmt.Sprintf("refresh-%s", id),
		UserID:       userID,
		IPAddress:    "127.0.0.1",
		DeviceInfo:   deviceInfo,
	}
}

func TestCreateSessionEvictingDevice_SameDevice(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")

	first := newSession(user.ID, "firefox/linux")
	require.NoError(t, r.CreateSessionEvictingDevice(ctx, first))

	second := newSession(user.ID, "firefox/linux")
	require.NoError(t, r.CreateSessionEvictingDevice(ctx, second))

	live, err := r.LiveSessionsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, second.SessionID, live[0].SessionID)

	// the first pair died as a unit
	old, err := r.FindSessionByAccessToken(ctx, first.AccessToken)
	require.NoError(t, err)
	assert.True(t, old.Revoked)
	assert.True(t, old.Expired)
}

func TestCreateSessionEvictingDevice_DistinctDevices(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")

	require.NoError(t, r.CreateSessionEvictingDevice(ctx, newSession(user.ID, "firefox/linux")))
	require.NoError(t, r.CreateSessionEvictingDevice(ctx, newSession(user.ID, "safari/ios")))

	live, err := r.LiveSessionsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, live, 2)
}

func TestRotateSession_SingleUse(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")

	first := newSession(user.ID, "firefox/linux")
	require.NoError(t, r.CreateSessionEvictingDevice(ctx, first))

	require.NoError(t, r.RotateSession(ctx, first.RefreshToken, newSession(user.ID, "firefox/linux")))

	// second rotation of the same refresh token must lose
	err := r.RotateSession(ctx, first.RefreshToken, newSession(user.ID, "firefox/linux"))
	assert.ErrorIs(t, err, domain.ErrTokenAlreadyDead)

	live, err := r.LiveSessionsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestRotateSession_UnknownToken(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	user := createTestUser(t, r, "alice")

	err := r.RotateSession(context.Background(), "never-issued", newSession(user.ID, "x"))
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestMarkSessionDead_Conflict(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")

	sess := newSession(user.ID, "firefox/linux")
	require.NoError(t, r.CreateSessionEvictingDevice(ctx, sess))

	require.NoError(t, r.MarkSessionDead(ctx, sess))
	assert.True(t, sess.Revoked)
	assert.True(t, sess.Expired)

	err := r.MarkSessionDead(ctx, sess)
	assert.ErrorIs(t, err, domain.ErrTokenAlreadyDead)
}

func TestMarkAllSessionsDead(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	user := createTestUser(t, r, "alice")

	require.NoError(t, r.CreateSessionEvictingDevice(ctx, newSession(user.ID, "a")))
	require.NoError(t, r.CreateSessionEvictingDevice(ctx, newSession(user.ID, "b")))

	count, err := r.MarkAllSessionsDead(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	live, err := r.LiveSessionsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, live)

	// nothing live left: the batch is vacuous, not an error
	count, err = r.MarkAllSessionsDead(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFindSession_NotFound(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)

	_, err := r.FindSessionByAccessToken(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	_, err = r.FindSessionByRefreshToken(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

// Package tokens issues and verifies the compact signed tokens the session
// manager hands out. It is stateless: whether a structurally valid token is
// still usable is the session registry's call, not ours.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avoronov/passport/internal/keys"
)

var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

const (
	DefaultAccessTTL  = 2 * time.Hour
	DefaultRefreshTTL = 24 * time.Hour
)

type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) Username() string { return c.Subject }

type Signer struct {
	keys       *keys.KeyPair
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSigner(kp *keys.KeyPair, accessTTL, refreshTTL time.Duration) *Signer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Signer{keys: kp, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *Signer) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Signer) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Signer) IssueAccess(subject string) (string, error) {
	return s.issue(subject, s.accessTTL)
}

func (s *Signer) IssueRefresh(subject string) (string, error) {
	return s.issue(subject, s.refreshTTL)
}

func (s *Signer) issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps the serialized token unique even when two tokens for
			// one subject land in the same second; signing is deterministic
			// and the registry indexes the token string.
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return t.SignedString(s.keys.Private())
}

// Verify checks signature and expiry against the configured key. A token
// whose expiry equals the current instant is already expired.
func (s *Signer) Verify(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, ErrSignatureInvalid
		}
		return s.keys.Public(), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, ErrSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		default:
			return nil, ErrMalformed
		}
	}
	if !tkn.Valid {
		return nil, ErrSignatureInvalid
	}
	return &claims, nil
}

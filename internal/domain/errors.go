// Package domain holds the error taxonomy shared by the repositories, the
// session manager and the HTTP layer. Callers distinguish categories with
// errors.Is; anything not matching one of these sentinels is treated as an
// infrastructure failure.
package domain

import "errors"

// Authentication errors: the caller has to log in again.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)

// Authorization errors: valid principal, not allowed.
var ErrPermissionDenied = errors.New("permission denied")

// Conflict errors: client-correctable.
var (
	ErrTokenAlreadyDead = errors.New("token already revoked")
	ErrUserExists       = errors.New("user already exists")
	ErrEmailExists      = errors.New("email already registered")
	ErrRoleExists       = errors.New("role already exists")
	ErrCodeInvalid      = errors.New("verification code invalid or expired")
)

// Not-found errors.
var (
	ErrTokenNotFound      = errors.New("token not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
)

// ErrValidation marks malformed input rejected before any store access.
var ErrValidation = errors.New("validation failed")

package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Precondition errors - these indicate caller bugs, not security denials
	ErrMissingTenantContext = errors.New("tenant-scoped operation called without organization context")
	ErrMissingUserContext   = errors.New("ownership-scoped operation called without user context")

	// Session/account state errors
	ErrSessionExpired    = errors.New("session has expired")
	ErrInvalidSession    = errors.New("session token is invalid")
	ErrAccountLocked     = errors.New("account is temporarily locked")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

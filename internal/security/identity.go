package security

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/repclub/guard/internal/models"
)

// Identity is the read-only snapshot supplied by the platform's identity
// provider: who is signed in, where they belong, and when the session
// started and ends.
type Identity struct {
	UserID         uuid.UUID
	Email          string
	OrganizationID uuid.UUID
	LocationID     *uuid.UUID
	Role           models.Role
	MFAVerified    bool
	SignedInAt     time.Time
	ExpiresAt      time.Time
}

// IdentityProvider supplies the current identity. A (nil, nil) return
// means no session.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (*Identity, error)
}

// StaticProvider wraps a fixed identity, for per-request evaluation where
// the session was already resolved from a token
type StaticProvider struct {
	Identity *Identity
}

// CurrentIdentity implements IdentityProvider
func (p StaticProvider) CurrentIdentity(ctx context.Context) (*Identity, error) {
	return p.Identity, nil
}

// StateFromIdentity derives a SecurityState snapshot. Permissions, role
// level, and the MFA requirement all derive from the role; mfaVerified is
// the caller's explicit verified flag.
func StateFromIdentity(id *Identity, mfaVerified bool, now time.Time) models.SecurityState {
	if id == nil {
		return models.SecurityState{LastValidated: now}
	}

	sessionValid := id.ExpiresAt.IsZero() || id.ExpiresAt.After(now)

	return models.SecurityState{
		Authenticated:  true,
		SessionValid:   sessionValid,
		MFARequired:    models.MFARequiredForRole(id.Role),
		MFAVerified:    mfaVerified,
		UserID:         id.UserID,
		OrganizationID: id.OrganizationID,
		LocationID:     id.LocationID,
		Role:           id.Role,
		RoleLevel:      models.RoleLevel(id.Role),
		Permissions:    models.PermissionsForRole(id.Role),
		LastSignIn:     id.SignedInAt,
		LastValidated:  now,
	}
}

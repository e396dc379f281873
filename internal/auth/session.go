// Package auth consumes the platform's session tokens. The hosted
// identity provider mints them; this core only validates and reads them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/repclub/guard/internal/models"
	"github.com/repclub/guard/internal/security"
)

// SessionClaims are the claims the platform puts in its access tokens
type SessionClaims struct {
	Email       string `json:"email,omitempty"`
	OrgID       string `json:"org_id"`
	LocationID  string `json:"location_id,omitempty"`
	Role        string `json:"role"`
	MFAVerified bool   `json:"mfa,omitempty"`
	AuthTime    int64  `json:"auth_time,omitempty"`
	jwt.RegisteredClaims
}

// SessionParser validates HS256 access tokens and maps their claims to an
// identity snapshot
type SessionParser struct {
	secret []byte
}

// NewSessionParser creates a parser for tokens signed with secret
func NewSessionParser(secret string) *SessionParser {
	return &SessionParser{secret: []byte(secret)}
}

// Parse validates tokenString and returns the identity it carries.
// Expired tokens return ErrSessionExpired; any other validation failure
// returns ErrInvalidSession.
func (p *SessionParser) Parse(tokenString string) (*security.Identity, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidSession, err)
	}
	if !token.Valid {
		return nil, models.ErrInvalidSession
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject claim", models.ErrInvalidSession)
	}

	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed organization claim", models.ErrInvalidSession)
	}

	identity := &security.Identity{
		UserID:         userID,
		Email:          claims.Email,
		OrganizationID: orgID,
		Role:           models.Role(claims.Role),
		MFAVerified:    claims.MFAVerified,
	}

	if claims.LocationID != "" {
		locationID, err := uuid.Parse(claims.LocationID)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed location claim", models.ErrInvalidSession)
		}
		identity.LocationID = &locationID
	}

	// Prefer the explicit auth_time claim; fall back to issued-at
	switch {
	case claims.AuthTime > 0:
		identity.SignedInAt = time.Unix(claims.AuthTime, 0)
	case claims.IssuedAt != nil:
		identity.SignedInAt = claims.IssuedAt.Time
	}

	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckLayer identifies which evaluation layer produced a result
type CheckLayer string

const (
	LayerAuthentication    CheckLayer = "authentication"
	LayerAuthorization     CheckLayer = "authorization"
	LayerResourceOwnership CheckLayer = "resource_ownership"
)

// SecurityState is the snapshot the evaluator derives its decisions from.
// It is recomputed whenever an upstream input (session, profile, MFA flag)
// changes; Permissions is always derived from Role, never set directly.
type SecurityState struct {
	Authenticated  bool
	SessionValid   bool
	MFARequired    bool
	MFAVerified    bool
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	LocationID     *uuid.UUID
	Role           Role
	RoleLevel      int
	Permissions    []string
	LastSignIn     time.Time
	LastValidated  time.Time
}

// CheckResult is the outcome of one security layer, or of the composite
// evaluation (which is exactly the first failing layer's result).
type CheckResult struct {
	Allowed   bool
	Layer     CheckLayer
	Reason    string
	CheckedAt time.Time
}

// ResourceContext carries the recorded owner/tenant fields of a resource
// for the ownership layer. Nil fields mean the resource does not carry
// that dimension.
type ResourceContext struct {
	Type           string
	ID             string
	OwnerUserID    *uuid.UUID
	OrganizationID *uuid.UUID
	LocationID     *uuid.UUID
}

// Package security composes authentication, authorization, and resource
// ownership checks into a single allow/deny decision with a structured
// denial reason. It is client-side defense in depth: the hosted database's
// row-level policies remain the real enforcement boundary.
package security

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/repclub/guard/internal/models"
)

// DefaultReauthThreshold is how stale a sign-in may be before a sensitive
// operation demands step-up authentication
const DefaultReauthThreshold = 15 * time.Minute

// AuditSink receives structured security events. Write-only and
// fire-and-forget: implementations must not let a failed write block the
// guarded action.
type AuditSink interface {
	LogAuthEvent(ctx context.Context, actorID, orgID *uuid.UUID, result string, reason *string, metadata models.EventMetadata) error
	LogAuthzEvent(ctx context.Context, actorID, orgID uuid.UUID, permission, result string, reason *string) error
	LogResourceEvent(ctx context.Context, actorID uuid.UUID, orgID *uuid.UUID, resourceType, resourceID, result string, reason *string) error
	LogSecurityIncident(ctx context.Context, actorID, orgID *uuid.UUID, severity, reason string, metadata models.EventMetadata) error
}

// CheckAuthentication passes when there is a live, non-expired session
// bound to a known user
func CheckAuthentication(s models.SecurityState) models.CheckResult {
	result := models.CheckResult{Layer: models.LayerAuthentication, CheckedAt: time.Now()}

	if !s.Authenticated || s.UserID == uuid.Nil {
		result.Reason = "no authenticated user"
		return result
	}
	if !s.SessionValid {
		result.Reason = "session is expired or invalid"
		return result
	}

	result.Allowed = true
	return result
}

// CheckAuthorization passes when the role-derived permission set grants
// the requested permission
func CheckAuthorization(s models.SecurityState, permission string) models.CheckResult {
	result := models.CheckResult{Layer: models.LayerAuthorization, CheckedAt: time.Now()}

	if !models.HasPermission(s.Permissions, permission) {
		result.Reason = fmt.Sprintf("role %q lacks permission %q", s.Role, permission)
		return result
	}

	result.Allowed = true
	return result
}

// CheckResourceOwnership passes when the actor's tenant fields match the
// resource's recorded ones. Callers set OwnerUserID only on user-owned
// resources; location is compared only when both sides are
// location-scoped.
func CheckResourceOwnership(s models.SecurityState, rc models.ResourceContext) models.CheckResult {
	result := models.CheckResult{Layer: models.LayerResourceOwnership, CheckedAt: time.Now()}

	if rc.OrganizationID != nil && *rc.OrganizationID != s.OrganizationID {
		result.Reason = "resource belongs to a different organization"
		return result
	}
	if rc.LocationID != nil && s.LocationID != nil && *rc.LocationID != *s.LocationID {
		result.Reason = "resource belongs to a different location"
		return result
	}
	if rc.OwnerUserID != nil && *rc.OwnerUserID != s.UserID {
		result.Reason = "resource is owned by a different user"
		return result
	}

	result.Allowed = true
	return result
}

// Evaluator holds the current SecurityState snapshot and produces
// composite decisions. Refresh recomputes the snapshot from the identity
// provider; callers trigger it whenever an upstream input changes. State
// can still change between a check and the action it guards; the external
// store's own enforcement covers that gap.
type Evaluator struct {
	mu          sync.RWMutex
	provider    IdentityProvider
	audit       AuditSink
	logger      *slog.Logger
	reauthAfter time.Duration
	now         func() time.Time
	state       models.SecurityState
	mfaVerified bool
}

// NewEvaluator creates an evaluator. reauthAfter <= 0 selects
// DefaultReauthThreshold. The initial state is unauthenticated until the
// first Refresh.
func NewEvaluator(provider IdentityProvider, audit AuditSink, logger *slog.Logger, reauthAfter time.Duration) *Evaluator {
	if reauthAfter <= 0 {
		reauthAfter = DefaultReauthThreshold
	}
	return &Evaluator{
		provider:    provider,
		audit:       audit,
		logger:      logger,
		reauthAfter: reauthAfter,
		now:         time.Now,
	}
}

// Refresh invalidates and recomputes the SecurityState snapshot from the
// identity provider
func (e *Evaluator) Refresh(ctx context.Context) error {
	id, err := e.provider.CurrentIdentity(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve identity: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateFromIdentity(id, e.mfaVerified, e.now())
	return nil
}

// State returns a copy of the current snapshot
func (e *Evaluator) State() models.SecurityState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// SetMFAVerified records the outcome of an explicit MFA verification
func (e *Evaluator) SetMFAVerified(verified bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mfaVerified = verified
	e.state.MFAVerified = verified
}

// CheckMFARequired reports whether MFA is required but not yet verified
func (e *Evaluator) CheckMFARequired() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.MFARequired && !e.state.MFAVerified
}

// ValidateAccess evaluates the layers in fixed order and stops at the
// first failure: authentication, then authorization, then resource
// ownership when a resource context is supplied. The composite result is
// exactly the first failing layer's result, or an overall pass. Every
// decision is reported to the audit sink.
func (e *Evaluator) ValidateAccess(ctx context.Context, permission string, rc *models.ResourceContext) models.CheckResult {
	state := e.State()

	if result := CheckAuthentication(state); !result.Allowed {
		e.emitAuth(ctx, state, result)
		return result
	}

	if result := CheckAuthorization(state, permission); !result.Allowed {
		e.emitAuthz(ctx, state, permission, result)
		return result
	}

	if rc != nil {
		if result := CheckResourceOwnership(state, *rc); !result.Allowed {
			e.emitResource(ctx, state, *rc, result)
			return result
		}

		passed := models.CheckResult{Allowed: true, Layer: models.LayerResourceOwnership, CheckedAt: time.Now()}
		e.emitResource(ctx, state, *rc, passed)
		return passed
	}

	passed := models.CheckResult{Allowed: true, Layer: models.LayerAuthorization, CheckedAt: time.Now()}
	e.emitAuthz(ctx, state, permission, passed)
	return passed
}

// RequiresReauth reports whether a sensitive operation needs step-up
// because the sign-in is older than the threshold. A stale sign-in is
// also reported as a security incident.
func (e *Evaluator) RequiresReauth(ctx context.Context) bool {
	state := e.State()

	if !state.Authenticated || state.LastSignIn.IsZero() {
		return true
	}

	if e.now().Sub(state.LastSignIn) <= e.reauthAfter {
		return false
	}

	if e.audit != nil {
		actorID := state.UserID
		orgID := state.OrganizationID
		err := e.audit.LogSecurityIncident(ctx, &actorID, &orgID, models.SeverityMedium,
			"re-authentication required for sensitive operation",
			models.EventMetadata{"last_sign_in": state.LastSignIn.UTC().Format(time.RFC3339)})
		if err != nil && e.logger != nil {
			e.logger.Warn("failed to log security incident", slog.Any("error", err))
		}
	}

	return true
}

func (e *Evaluator) emitAuth(ctx context.Context, state models.SecurityState, result models.CheckResult) {
	if e.audit == nil {
		return
	}
	var actorID, orgID *uuid.UUID
	if state.UserID != uuid.Nil {
		id := state.UserID
		actorID = &id
	}
	if state.OrganizationID != uuid.Nil {
		id := state.OrganizationID
		orgID = &id
	}
	if err := e.audit.LogAuthEvent(ctx, actorID, orgID, eventResult(result), reasonPtr(result), nil); err != nil && e.logger != nil {
		e.logger.Warn("failed to log auth event", slog.Any("error", err))
	}
}

func (e *Evaluator) emitAuthz(ctx context.Context, state models.SecurityState, permission string, result models.CheckResult) {
	if e.audit == nil {
		return
	}
	if err := e.audit.LogAuthzEvent(ctx, state.UserID, state.OrganizationID, permission, eventResult(result), reasonPtr(result)); err != nil && e.logger != nil {
		e.logger.Warn("failed to log authz event", slog.Any("error", err))
	}
}

func (e *Evaluator) emitResource(ctx context.Context, state models.SecurityState, rc models.ResourceContext, result models.CheckResult) {
	if e.audit == nil {
		return
	}
	var orgID *uuid.UUID
	if state.OrganizationID != uuid.Nil {
		id := state.OrganizationID
		orgID = &id
	}
	if err := e.audit.LogResourceEvent(ctx, state.UserID, orgID, rc.Type, rc.ID, eventResult(result), reasonPtr(result)); err != nil && e.logger != nil {
		e.logger.Warn("failed to log resource event", slog.Any("error", err))
	}
}

func eventResult(r models.CheckResult) string {
	if r.Allowed {
		return models.EventResultAllowed
	}
	return models.EventResultDenied
}

func reasonPtr(r models.CheckResult) *string {
	if r.Reason == "" {
		return nil
	}
	reason := r.Reason
	return &reason
}

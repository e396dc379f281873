package security

import (
	"github.com/google/uuid"
	"github.com/repclub/guard/internal/models"
)

// Filters are advisory scoping constraints handed to the query layer.
// They narrow what the UI asks for; they do not enforce anything - the
// store's row-level policies do. Calling a filter constructor without the
// required context is a caller bug, reported as an error rather than a
// denial.

// OrgFilter returns the tenant constraint for the current organization
func (e *Evaluator) OrgFilter() (map[string]any, error) {
	state := e.State()

	if state.OrganizationID == uuid.Nil {
		return nil, models.ErrMissingTenantContext
	}

	return map[string]any{"organization_id": state.OrganizationID}, nil
}

// ScopeFilter returns the tenant constraint plus the location constraint
// for location-scoped actors
func (e *Evaluator) ScopeFilter() (map[string]any, error) {
	filter, err := e.OrgFilter()
	if err != nil {
		return nil, err
	}

	state := e.State()
	if state.LocationID != nil {
		filter["location_id"] = *state.LocationID
	}

	return filter, nil
}

// OwnershipFilter returns the constraint restricting a query to records
// the current user owns
func (e *Evaluator) OwnershipFilter() (map[string]any, error) {
	state := e.State()

	if state.UserID == uuid.Nil {
		return nil, models.ErrMissingUserContext
	}

	return map[string]any{"user_id": state.UserID}, nil
}

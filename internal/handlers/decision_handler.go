package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/repclub/guard/internal/auth"
	"github.com/repclub/guard/internal/models"
	"github.com/repclub/guard/internal/security"
	"github.com/repclub/guard/internal/services"
	pkghttp "github.com/repclub/guard/pkg/http"
)

// DecisionHandler evaluates access decisions for the hosted application.
// The decision is advisory defense in depth; the caller's database
// policies still enforce tenancy on the actual query.
type DecisionHandler struct {
	parser          *auth.SessionParser
	audit           *services.AuditService
	logger          *slog.Logger
	reauthThreshold time.Duration
}

// NewDecisionHandler creates a new DecisionHandler
func NewDecisionHandler(parser *auth.SessionParser, audit *services.AuditService, logger *slog.Logger, reauthThreshold time.Duration) *DecisionHandler {
	return &DecisionHandler{
		parser:          parser,
		audit:           audit,
		logger:          logger,
		reauthThreshold: reauthThreshold,
	}
}

// ResourceDTO carries the resource's recorded tenant fields
type ResourceDTO struct {
	Type           string `json:"type" validate:"required"`
	ID             string `json:"id" validate:"required"`
	OwnerUserID    string `json:"owner_user_id,omitempty" validate:"omitempty,uuid"`
	OrganizationID string `json:"organization_id,omitempty" validate:"omitempty,uuid"`
	LocationID     string `json:"location_id,omitempty" validate:"omitempty,uuid"`
}

// DecisionRequest asks whether the session may perform an action
type DecisionRequest struct {
	Token      string       `json:"token" validate:"required"`
	Permission string       `json:"permission" validate:"required"`
	Resource   *ResourceDTO `json:"resource,omitempty"`
	Sensitive  bool         `json:"sensitive,omitempty"`
}

// DecisionResponse is the composite decision plus step-up requirements
type DecisionResponse struct {
	Allowed        bool           `json:"allowed"`
	Layer          string         `json:"layer"`
	Reason         string         `json:"reason,omitempty"`
	Message        string         `json:"message,omitempty"`
	RequiresMFA    bool           `json:"requires_mfa"`
	RequiresReauth bool           `json:"requires_reauth"`
	ScopeFilter    map[string]any `json:"scope_filter,omitempty"`
	CheckedAt      time.Time      `json:"checked_at"`
}

// Check handles POST /v1/decisions
func (h *DecisionHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	// An unparseable session is not a request error: it flows into the
	// authentication layer, which denies and records the event
	identity, err := h.parser.Parse(req.Token)
	if err != nil {
		h.logger.Debug("session parse failed", slog.Any("error", err))
		identity = nil
	}

	evaluator := security.NewEvaluator(security.StaticProvider{Identity: identity}, h.audit, h.logger, h.reauthThreshold)
	if identity != nil {
		evaluator.SetMFAVerified(identity.MFAVerified)
	}
	if err := evaluator.Refresh(r.Context()); err != nil {
		pkghttp.WriteInternalError(w, "failed to evaluate security state")
		return
	}

	rc, err := resourceContext(req.Resource)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result := evaluator.ValidateAccess(r.Context(), req.Permission, rc)

	resp := DecisionResponse{
		Allowed:     result.Allowed,
		Layer:       string(result.Layer),
		Reason:      result.Reason,
		Message:     security.DenialMessage(result),
		RequiresMFA: evaluator.CheckMFARequired(),
		CheckedAt:   result.CheckedAt,
	}

	if req.Sensitive {
		resp.RequiresReauth = evaluator.RequiresReauth(r.Context())
	}

	if result.Allowed {
		if filter, err := evaluator.ScopeFilter(); err == nil {
			resp.ScopeFilter = filter
		}
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

func resourceContext(dto *ResourceDTO) (*models.ResourceContext, error) {
	if dto == nil {
		return nil, nil
	}

	rc := &models.ResourceContext{
		Type: dto.Type,
		ID:   dto.ID,
	}

	if dto.OwnerUserID != "" {
		id, err := uuid.Parse(dto.OwnerUserID)
		if err != nil {
			return nil, models.ErrBadRequest
		}
		rc.OwnerUserID = &id
	}
	if dto.OrganizationID != "" {
		id, err := uuid.Parse(dto.OrganizationID)
		if err != nil {
			return nil, models.ErrBadRequest
		}
		rc.OrganizationID = &id
	}
	if dto.LocationID != "" {
		id, err := uuid.Parse(dto.LocationID)
		if err != nil {
			return nil, models.ErrBadRequest
		}
		rc.LocationID = &id
	}

	return rc, nil
}

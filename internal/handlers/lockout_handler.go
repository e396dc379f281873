package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/repclub/guard/internal/models"
	"github.com/repclub/guard/internal/ratelimit"
	"github.com/repclub/guard/internal/security"
	"github.com/repclub/guard/internal/services"
	pkghttp "github.com/repclub/guard/pkg/http"
	pkglogger "github.com/repclub/guard/pkg/logger"
)

// LockoutHandler exposes the login-lockout tracker to the hosted
// application's auth flow
type LockoutHandler struct {
	tracker *ratelimit.LockoutTracker
	audit   *services.AuditService
	logger  *slog.Logger
}

// NewLockoutHandler creates a new LockoutHandler
func NewLockoutHandler(tracker *ratelimit.LockoutTracker, audit *services.AuditService, logger *slog.Logger) *LockoutHandler {
	return &LockoutHandler{
		tracker: tracker,
		audit:   audit,
		logger:  logger,
	}
}

// LockoutResponse reports an identifier's lockout standing
type LockoutResponse struct {
	Locked            bool       `json:"locked"`
	AttemptsRemaining int        `json:"attempts_remaining"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	Message           string     `json:"message,omitempty"`
}

// RecordFailure handles POST /v1/login-failures/{identifier}
func (h *LockoutHandler) RecordFailure(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		pkghttp.WriteBadRequest(w, "identifier is required")
		return
	}

	wasLocked := h.tracker.IsLockedOut(identifier).Locked
	status := h.tracker.RecordFailure(identifier)

	// Report the lockout transition once, not every retry while locked.
	// Identifiers are typically emails; only the masked form reaches the
	// audit trail.
	if status.Locked && !wasLocked {
		_ = h.audit.LogSecurityIncident(r.Context(), nil, nil, models.SeverityHigh,
			"login lockout triggered",
			models.EventMetadata{"identifier": pkglogger.SanitizedIdentifier(identifier)})
	}

	pkghttp.WriteJSON(w, http.StatusOK, lockoutResponse(status))
}

// Status handles GET /v1/login-failures/{identifier}
func (h *LockoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		pkghttp.WriteBadRequest(w, "identifier is required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, lockoutResponse(h.tracker.IsLockedOut(identifier)))
}

// Clear handles DELETE /v1/login-failures/{identifier}, called after a
// successful authentication
func (h *LockoutHandler) Clear(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		pkghttp.WriteBadRequest(w, "identifier is required")
		return
	}

	h.tracker.Clear(identifier)
	w.WriteHeader(http.StatusNoContent)
}

func lockoutResponse(status ratelimit.LockoutStatus) LockoutResponse {
	resp := LockoutResponse{
		Locked:            status.Locked,
		AttemptsRemaining: status.AttemptsRemaining,
		LockedUntil:       status.LockedUntil,
	}
	if status.Locked {
		resp.Message = security.LockedOutMessage(status.LockedUntil)
	}
	return resp
}

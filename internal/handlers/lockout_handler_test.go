package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repclub/guard/internal/models"
	"github.com/repclub/guard/internal/ratelimit"
	"github.com/repclub/guard/internal/services"
)

// capturingEventRepo records persisted security events for assertions
type capturingEventRepo struct {
	events []*models.SecurityEvent
}

func (c *capturingEventRepo) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	c.events = append(c.events, event)
	return event, nil
}

func newLockoutRouter() (*chi.Mux, *ratelimit.LockoutTracker, *capturingEventRepo) {
	logger := discardLogger()
	repo := &capturingEventRepo{}
	tracker := ratelimit.NewLockoutTracker(ratelimit.DefaultLockoutPolicy())
	h := NewLockoutHandler(tracker, services.NewAuditService(repo, logger), logger)

	r := chi.NewRouter()
	r.Post("/v1/login-failures/{identifier}", h.RecordFailure)
	r.Get("/v1/login-failures/{identifier}", h.Status)
	r.Delete("/v1/login-failures/{identifier}", h.Clear)
	return r, tracker, repo
}

func doLockoutRequest(t *testing.T, r *chi.Mux, method, identifier string) (*httptest.ResponseRecorder, LockoutResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, "/v1/login-failures/"+identifier, nil))

	var resp LockoutResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestLockoutHandler_RecordFailure(t *testing.T) {
	r, _, _ := newLockoutRouter()

	rec, resp := doLockoutRequest(t, r, http.MethodPost, "owner@repclub.fit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Locked)
	assert.Equal(t, 4, resp.AttemptsRemaining)
	assert.Empty(t, resp.Message)
}

func TestLockoutHandler_LocksAfterMaxAttempts(t *testing.T) {
	r, _, _ := newLockoutRouter()

	var resp LockoutResponse
	for i := 0; i < 5; i++ {
		_, resp = doLockoutRequest(t, r, http.MethodPost, "owner@repclub.fit")
	}

	assert.True(t, resp.Locked)
	assert.Equal(t, 0, resp.AttemptsRemaining)
	require.NotNil(t, resp.LockedUntil)
	assert.Contains(t, resp.Message, "Too many failed sign-in attempts")
}

func TestLockoutHandler_LockIncidentMasksIdentifier(t *testing.T) {
	r, _, repo := newLockoutRouter()

	for i := 0; i < 6; i++ {
		doLockoutRequest(t, r, http.MethodPost, "owner@repclub.fit")
	}

	// One incident for the lock transition, not one per retry while locked
	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, models.EventTypeSecurityIncident, event.EventType)

	// The raw email never reaches the audit trail
	assert.Equal(t, "o****@*******.fit", event.Metadata["identifier"])
}

func TestLockoutHandler_Status(t *testing.T) {
	r, _, _ := newLockoutRouter()

	// Status on an unknown identifier is fresh and side-effect free
	rec, resp := doLockoutRequest(t, r, http.MethodGet, "unknown@repclub.fit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Locked)
	assert.Equal(t, 5, resp.AttemptsRemaining)

	doLockoutRequest(t, r, http.MethodPost, "unknown@repclub.fit")
	_, resp = doLockoutRequest(t, r, http.MethodGet, "unknown@repclub.fit")
	assert.Equal(t, 4, resp.AttemptsRemaining)
}

func TestLockoutHandler_Clear(t *testing.T) {
	r, tracker, _ := newLockoutRouter()

	for i := 0; i < 5; i++ {
		doLockoutRequest(t, r, http.MethodPost, "owner@repclub.fit")
	}
	require.True(t, tracker.IsLockedOut("owner@repclub.fit").Locked)

	rec, _ := doLockoutRequest(t, r, http.MethodDelete, "owner@repclub.fit")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, tracker.IsLockedOut("owner@repclub.fit").Locked)
}

package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repclub/guard/internal/models"
)

// mockEventRepo captures created events and can simulate store failures
type mockEventRepo struct {
	events []*models.SecurityEvent
	err    error
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.events = append(m.events, event)
	return event, nil
}

func newTestAuditService(repo SecurityEventRepository) (*AuditService, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewAuditService(repo, logger), &buf
}

func TestAuditService_LogAuthEvent(t *testing.T) {
	repo := &mockEventRepo{}
	svc, buf := newTestAuditService(repo)

	actorID := uuid.New()
	reason := "session is expired or invalid"
	err := svc.LogAuthEvent(context.Background(), &actorID, nil, models.EventResultDenied, &reason, models.EventMetadata{"endpoint": "login"})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, models.EventTypeAuth, event.EventType)
	assert.Equal(t, models.EventResultDenied, event.Result)
	assert.Equal(t, &actorID, event.ActorID)
	assert.Nil(t, event.OrganizationID)
	assert.Equal(t, "login", event.Metadata["endpoint"])

	// Denials log at WARN
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), reason)
}

func TestAuditService_LogAuthzEvent(t *testing.T) {
	repo := &mockEventRepo{}
	svc, buf := newTestAuditService(repo)

	actorID := uuid.New()
	orgID := uuid.New()
	err := svc.LogAuthzEvent(context.Background(), actorID, orgID, models.PermissionMembersRead, models.EventResultAllowed, nil)
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, models.EventTypeAuthz, event.EventType)
	assert.Equal(t, models.PermissionMembersRead, event.Metadata["permission"])

	// Allowed decisions log at INFO
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestAuditService_LogResourceEvent(t *testing.T) {
	repo := &mockEventRepo{}
	svc, _ := newTestAuditService(repo)

	actorID := uuid.New()
	orgID := uuid.New()
	reason := "resource belongs to a different organization"
	err := svc.LogResourceEvent(context.Background(), actorID, &orgID, "member", "m-123", models.EventResultDenied, &reason)
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, models.EventTypeResourceAccess, event.EventType)
	require.NotNil(t, event.ResourceType)
	assert.Equal(t, "member", *event.ResourceType)
	require.NotNil(t, event.ResourceID)
	assert.Equal(t, "m-123", *event.ResourceID)
}

func TestAuditService_LogSecurityIncident(t *testing.T) {
	repo := &mockEventRepo{}
	svc, buf := newTestAuditService(repo)

	err := svc.LogSecurityIncident(context.Background(), nil, nil, models.SeverityHigh, "account locked after repeated failures", nil)
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, models.EventTypeSecurityIncident, event.EventType)
	require.NotNil(t, event.Severity)
	assert.Equal(t, models.SeverityHigh, *event.Severity)
	assert.Contains(t, buf.String(), "account locked")
}

func TestAuditService_StoreFailureIsSwallowed(t *testing.T) {
	repo := &mockEventRepo{err: errors.New("connection refused")}
	svc, buf := newTestAuditService(repo)

	actorID := uuid.New()
	err := svc.LogAuthEvent(context.Background(), &actorID, nil, models.EventResultAllowed, nil, nil)
	assert.NoError(t, err, "a failed store write must not surface")
	assert.Contains(t, buf.String(), "failed to persist security event")
}

func TestAuditService_NilRepoLogsOnly(t *testing.T) {
	svc, buf := newTestAuditService(nil)

	actorID := uuid.New()
	err := svc.LogAuthEvent(context.Background(), &actorID, nil, models.EventResultAllowed, nil, nil)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "auth event")
}

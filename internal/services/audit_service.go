package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/repclub/guard/internal/models"
)

// SecurityEventRepository defines the append-only security event store
type SecurityEventRepository interface {
	Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
}

// AuditService handles security event logging with dual-write pattern
// (slog + event store). Store failures are logged and swallowed: losing an
// audit record must never block the guarded action.
type AuditService struct {
	repo   SecurityEventRepository
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo SecurityEventRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// LogAuthEvent logs authentication decisions (session checks, lockouts)
func (s *AuditService) LogAuthEvent(ctx context.Context, actorID, orgID *uuid.UUID, result string, reason *string, metadata models.EventMetadata) error {
	event := &models.SecurityEvent{
		EventType:      models.EventTypeAuth,
		ActorID:        actorID,
		OrganizationID: orgID,
		Result:         result,
		Reason:         reason,
		Metadata:       metadata,
	}

	s.write(ctx, event, "auth event")
	return nil
}

// LogAuthzEvent logs permission decisions
func (s *AuditService) LogAuthzEvent(ctx context.Context, actorID, orgID uuid.UUID, permission, result string, reason *string) error {
	event := &models.SecurityEvent{
		EventType:      models.EventTypeAuthz,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Result:         result,
		Reason:         reason,
		Metadata:       models.EventMetadata{"permission": permission},
	}

	s.write(ctx, event, "authz event")
	return nil
}

// LogResourceEvent logs ownership decisions against a specific resource
func (s *AuditService) LogResourceEvent(ctx context.Context, actorID uuid.UUID, orgID *uuid.UUID, resourceType, resourceID, result string, reason *string) error {
	event := &models.SecurityEvent{
		EventType:      models.EventTypeResourceAccess,
		ActorID:        &actorID,
		OrganizationID: orgID,
		ResourceType:   &resourceType,
		ResourceID:     &resourceID,
		Result:         result,
		Reason:         reason,
	}

	s.write(ctx, event, "resource event")
	return nil
}

// LogSecurityIncident logs anomalies that warrant follow-up (stale
// sign-ins on sensitive operations, lockout trips)
func (s *AuditService) LogSecurityIncident(ctx context.Context, actorID, orgID *uuid.UUID, severity, reason string, metadata models.EventMetadata) error {
	event := &models.SecurityEvent{
		EventType:      models.EventTypeSecurityIncident,
		ActorID:        actorID,
		OrganizationID: orgID,
		Result:         models.EventResultDenied,
		Reason:         &reason,
		Severity:       &severity,
		Metadata:       metadata,
	}

	s.write(ctx, event, "security incident")
	return nil
}

// write dual-writes an event: immediate slog output, then the event store
func (s *AuditService) write(ctx context.Context, event *models.SecurityEvent, msg string) {
	attrs := []any{
		slog.String("event_type", event.EventType),
		slog.String("result", event.Result),
	}
	if event.ActorID != nil {
		attrs = append(attrs, slog.String("actor_id", event.ActorID.String()))
	}
	if event.OrganizationID != nil {
		attrs = append(attrs, slog.String("organization_id", event.OrganizationID.String()))
	}
	if event.ResourceType != nil {
		attrs = append(attrs, slog.String("resource_type", *event.ResourceType))
	}
	if event.Reason != nil {
		attrs = append(attrs, slog.String("reason", *event.Reason))
	}
	if event.Severity != nil {
		attrs = append(attrs, slog.String("severity", *event.Severity))
	}

	if event.Result == models.EventResultAllowed {
		s.logger.InfoContext(ctx, msg, attrs...)
	} else {
		s.logger.WarnContext(ctx, msg, attrs...)
	}

	if s.repo == nil {
		return
	}

	if _, err := s.repo.Create(ctx, event); err != nil {
		// Non-critical: don't fail the guarded action if persistence fails
		s.logger.ErrorContext(ctx, "failed to persist security event",
			slog.String("event_type", event.EventType),
			slog.Any("error", err),
		)
	}
}

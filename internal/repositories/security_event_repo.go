package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/repclub/guard/internal/database"
	"github.com/repclub/guard/internal/models"
)

// rowScanner abstracts pgx.Row and pgx.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...any) error
}

// SecurityEventRepository handles security event data access
type SecurityEventRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityEventRepository creates a new SecurityEventRepository
func NewSecurityEventRepository(db *database.DB) *SecurityEventRepository {
	return &SecurityEventRepository{pool: db.Pool}
}

// scanEventRow handles nullable fields and populates a SecurityEvent from a database row
func scanEventRow(row rowScanner) (*models.SecurityEvent, error) {
	var event models.SecurityEvent

	err := row.Scan(
		&event.ID, &event.EventType, &event.ActorID, &event.OrganizationID,
		&event.ResourceType, &event.ResourceID, &event.Result, &event.Reason,
		&event.Severity, &event.Metadata, &event.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &event, nil
}

// scanEventRows iterates through rows and scans each into SecurityEvent models
func scanEventRows(rows pgx.Rows) ([]*models.SecurityEvent, error) {
	defer rows.Close()

	events := make([]*models.SecurityEvent, 0)

	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security event rows: %w", err)
	}

	return events, nil
}

// Create appends a new security event
func (r *SecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	query := `
		INSERT INTO security_events (
			event_type, actor_id, organization_id, resource_type, resource_id,
			result, reason, severity, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, event_type, actor_id, organization_id, resource_type,
		          resource_id, result, reason, severity, metadata, created_at
	`

	result, err := scanEventRow(r.pool.QueryRow(
		ctx, query,
		event.EventType, event.ActorID, event.OrganizationID, event.ResourceType,
		event.ResourceID, event.Result, event.Reason, event.Severity, event.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create security event: %w", err)
	}

	return result, nil
}

// ListByActor retrieves security events for a specific actor
func (r *SecurityEventRepository) ListByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, actor_id, organization_id, resource_type,
		       resource_id, result, reason, severity, metadata, created_at
		FROM security_events
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}

	return scanEventRows(rows)
}

// ListByOrganization retrieves security events for an organization
func (r *SecurityEventRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, actor_id, organization_id, resource_type,
		       resource_id, result, reason, severity, metadata, created_at
		FROM security_events
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}

	return scanEventRows(rows)
}

// ListIncidents retrieves security incidents, most recent first
func (r *SecurityEventRepository) ListIncidents(ctx context.Context, limit, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, actor_id, organization_id, resource_type,
		       resource_id, result, reason, severity, metadata, created_at
		FROM security_events
		WHERE event_type = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, models.EventTypeSecurityIncident, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security incidents: %w", err)
	}

	return scanEventRows(rows)
}

// CountByActor counts security events for a specific actor
func (r *SecurityEventRepository) CountByActor(ctx context.Context, actorID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM security_events
		WHERE actor_id = $1
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query, actorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}

	return count, nil
}

// DeleteOlderThan removes events older than the retention window
func (r *SecurityEventRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	query := `
		DELETE FROM security_events
		WHERE created_at < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1
	`

	result, err := r.pool.Exec(ctx, query, days)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old security events: %w", err)
	}

	return result.RowsAffected(), nil
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types for security event logging
const (
	EventTypeAuth             = "auth"
	EventTypeAuthz            = "authz"
	EventTypeResourceAccess   = "resource_access"
	EventTypeSecurityIncident = "security_incident"
)

// Results
const (
	EventResultAllowed = "allowed"
	EventResultDenied  = "denied"
)

// Incident severities
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SecurityEvent is one entry in the append-only security event store
type SecurityEvent struct {
	ID             uuid.UUID     `db:"id"`
	EventType      string        `db:"event_type"`
	ActorID        *uuid.UUID    `db:"actor_id"`
	OrganizationID *uuid.UUID    `db:"organization_id"`
	ResourceType   *string       `db:"resource_type"`
	ResourceID     *string       `db:"resource_id"`
	Result         string        `db:"result"`
	Reason         *string       `db:"reason"`
	Severity       *string       `db:"severity"`
	Metadata       EventMetadata `db:"metadata"`
	CreatedAt      time.Time     `db:"created_at"`
}

// EventMetadata holds additional context for security events
type EventMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (em *EventMetadata) Scan(value interface{}) error {
	if value == nil {
		*em = make(EventMetadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*em = EventMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (em EventMetadata) Value() (driver.Value, error) {
	if em == nil {
		return nil, nil
	}
	return json.Marshal(em)
}

// MarshalJSON implements json.Marshaler
func (em EventMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(em))
}

// UnmarshalJSON implements json.Unmarshaler
func (em *EventMetadata) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*em = EventMetadata(m)
	return nil
}

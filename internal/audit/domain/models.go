// Package domain contains the audit trail models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditEvent is a before/after snapshot of one state-changing operation.
// It is observational only: the ledger never reads it back.
type AuditEvent struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID       *snowflake.ID  `gorm:"index" json:"org_id,omitempty"`
	ProviderID  *snowflake.ID  `gorm:"index" json:"provider_id,omitempty"`
	EntityType  string         `gorm:"type:text;not null;index" json:"entity_type"`
	EntityID    string         `gorm:"type:text;not null;index" json:"entity_id"`
	Action      string         `gorm:"type:text;not null;index" json:"action"`
	ActorType   string         `gorm:"type:text;not null" json:"actor_type"`
	ActorUserID *snowflake.ID  `gorm:"index" json:"actor_user_id,omitempty"`
	Before      datatypes.JSON `gorm:"type:jsonb" json:"before,omitempty"`
	After       datatypes.JSON `gorm:"type:jsonb" json:"after,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (AuditEvent) TableName() string { return "audit_events" }

// AuditCursor orders activity-feed pages.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

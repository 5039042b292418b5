// Package domain contains work logs and consumption allocations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// WorkLog records time a provider spent against an organization. A
// billable work log is created atomically with its lot decrements.
type WorkLog struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index:idx_work_logs_org_provider,priority:1" json:"org_id"`
	ProviderID   snowflake.ID `gorm:"not null;index:idx_work_logs_org_provider,priority:2" json:"provider_id"`
	MinutesSpent int64        `gorm:"not null" json:"minutes_spent"`
	Category     string       `gorm:"type:text;not null" json:"category"`
	PerformedAt  time.Time    `gorm:"not null" json:"performed_at"`
	PerformedBy  snowflake.ID `gorm:"not null;index" json:"performed_by"`
	IsBillable   bool         `gorm:"not null" json:"is_billable"`
	ReversedAt   *time.Time   `json:"reversed_at,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (WorkLog) TableName() string { return "work_logs" }

// LotConsumption apportions one spend across one lot. Rows are only
// inserted, never updated; a reversal stamps ReversedAt and re-credits
// through a compensating ledger entry instead of deleting the trail.
// Correction consumptions not tied to a work log reference the
// adjustment ledger entry that booked them.
type LotConsumption struct {
	ID                      snowflake.ID  `gorm:"primaryKey" json:"id"`
	CreditLotID             snowflake.ID  `gorm:"not null;index" json:"credit_lot_id"`
	WorkLogID               *snowflake.ID `gorm:"index" json:"work_log_id,omitempty"`
	AdjustmentLedgerEntryID *snowflake.ID `gorm:"index" json:"adjustment_ledger_entry_id,omitempty"`
	MinutesConsumed         int64         `gorm:"not null" json:"minutes_consumed"`
	ReversedAt              *time.Time    `json:"reversed_at,omitempty"`
	CreatedAt               time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LotConsumption) TableName() string { return "lot_consumptions" }

// Allocation reports how many minutes one lot contributed to a spend.
type Allocation struct {
	LotID   snowflake.ID `json:"lot_id"`
	Minutes int64        `json:"minutes"`
}

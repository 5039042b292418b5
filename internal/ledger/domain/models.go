// Package domain contains the append-only credit ledger types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntryType distinguishes balance-increasing from balance-decreasing facts.
type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

// ReasonCode explains why an entry was written.
type ReasonCode string

const (
	ReasonPurchase   ReasonCode = "purchase"
	ReasonUsage      ReasonCode = "usage"
	ReasonAdjustment ReasonCode = "adjustment"
	ReasonExpiry     ReasonCode = "expiry"
	ReasonRefund     ReasonCode = "refund"
)

// ActorType identifies who caused a balance change.
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// Actor is the identity attached to ledger entries and audit events.
// UserID is nil for system actors.
type Actor struct {
	Type   ActorType
	UserID *snowflake.ID
}

// SystemActor is the actor for scheduler-driven mutations.
func SystemActor() Actor {
	return Actor{Type: ActorTypeSystem}
}

// UserActor builds a user actor from a user id.
func UserActor(userID snowflake.ID) Actor {
	return Actor{Type: ActorTypeUser, UserID: &userID}
}

// CreditLedgerEntry is an immutable fact: minutes credited to or debited
// from an (organization, provider) pair. MinutesDelta is always the
// positive magnitude; EntryType carries the sign.
type CreditLedgerEntry struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	OrgID        snowflake.ID  `gorm:"not null;index:idx_ledger_org_provider,priority:1"`
	ProviderID   snowflake.ID  `gorm:"not null;index:idx_ledger_org_provider,priority:2"`
	EntryType    EntryType     `gorm:"type:text;not null"`
	ReasonCode   ReasonCode    `gorm:"type:text;not null;index"`
	MinutesDelta int64         `gorm:"not null"`
	ActorType    ActorType     `gorm:"type:text;not null"`
	ActorUserID  *snowflake.ID `gorm:"index"`
	OrderID      *snowflake.ID `gorm:"index"`
	LotID        *snowflake.ID `gorm:"index"`
	WorkLogID    *snowflake.ID `gorm:"index"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditLedgerEntry) TableName() string { return "credit_ledger_entries" }

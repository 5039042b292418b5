package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows ledger reads for the activity/reporting surface.
type ListFilter struct {
	OrgID      snowflake.ID
	ProviderID *snowflake.ID
	ReasonCode ReasonCode
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}

// Service is the append-only ledger store. Append runs on the caller's
// transaction handle so an entry commits atomically with the lot
// mutation it records.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, entry *CreditLedgerEntry) error
	List(ctx context.Context, filter ListFilter) ([]CreditLedgerEntry, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProvider     = errors.New("invalid_provider")
	ErrInvalidEntryType    = errors.New("invalid_entry_type")
	ErrInvalidReasonCode   = errors.New("invalid_reason_code")
	ErrInvalidDelta        = errors.New("invalid_minutes_delta")
	ErrInvalidActor        = errors.New("invalid_actor")
)

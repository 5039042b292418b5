package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
)

type ConsumeRequest struct {
	OrgID      snowflake.ID
	ProviderID snowflake.ID
	Minutes    int64
	WorkLogID  *snowflake.ID
	Actor      ledgerdomain.Actor
}

type ConsumeResult struct {
	LedgerEntryID snowflake.ID `json:"ledger_entry_id"`
	Allocations   []Allocation `json:"allocations"`
}

type LogWorkRequest struct {
	OrgID       snowflake.ID
	ProviderID  snowflake.ID
	Minutes     int64
	Category    string
	PerformedAt time.Time
	PerformedBy snowflake.ID
	IsBillable  bool
}

type LogWorkResult struct {
	WorkLog     WorkLog      `json:"work_log"`
	Allocations []Allocation `json:"allocations,omitempty"`
}

type ReverseResult struct {
	WorkLogID       snowflake.ID `json:"work_log_id"`
	ReversedMinutes int64        `json:"reversed_minutes"`
	// RestoredMinutes can be lower than ReversedMinutes when an
	// originating lot has expired since: forfeited minutes stay
	// forfeited.
	RestoredMinutes int64 `json:"restored_minutes"`
}

// Service allocates spend requests across active lots in
// FIFO-by-expiry order, always inside one transaction: either every lot
// decrement, consumption row and ledger entry commits, or none do.
type Service interface {
	Consume(ctx context.Context, req ConsumeRequest) (*ConsumeResult, error)
	// LogWork creates the work log and, when billable, allocates its
	// minutes in the same transaction; insufficient credit fails the
	// whole operation so no orphan work log survives.
	LogWork(ctx context.Context, req LogWorkRequest) (*LogWorkResult, error)
	// Reverse re-credits every consumption of a work log back onto its
	// originating lot and marks the trail reversed.
	Reverse(ctx context.Context, workLogID string, actor ledgerdomain.Actor) (*ReverseResult, error)
	// ApplyOrganizationDebit is the organization-wide correction path:
	// it draws down lots FIFO like a usage spend but books an
	// adjustment entry and ties the consumption rows to it instead of a
	// work log.
	ApplyOrganizationDebit(ctx context.Context, req ConsumeRequest) (*ConsumeResult, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProvider     = errors.New("invalid_provider")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidCategory     = errors.New("invalid_category")
	ErrInvalidWorkLog      = errors.New("invalid_work_log")
	ErrInsufficientCredit  = errors.New("insufficient_credit")
	ErrWorkLogNotFound     = errors.New("work_log_not_found")
	ErrAlreadyReversed     = errors.New("work_log_already_reversed")
	ErrNothingToReverse    = errors.New("nothing_to_reverse")
)

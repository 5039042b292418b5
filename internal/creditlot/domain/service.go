package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
)

// MintRequest creates one lot and its credit ledger entry. OrderID is
// nil for manually granted (adjustment) lots.
type MintRequest struct {
	OrgID      snowflake.ID
	ProviderID snowflake.ID
	OrderID    *snowflake.ID
	Minutes    int64
	ExpiresAt  time.Time
	Actor      ledgerdomain.Actor
}

// AdjustRequest applies a support-issued correction to one lot.
type AdjustRequest struct {
	LotID        snowflake.ID
	DeltaMinutes int64
	Actor        ledgerdomain.Actor
}

type Service interface {
	// MintLot is idempotent per order id: redelivered payment
	// confirmations return the existing lot without writing anything.
	MintLot(ctx context.Context, req MintRequest) (*CreditLot, error)
	AdjustLot(ctx context.Context, req AdjustRequest) (*CreditLot, error)
	// GrantAdjustmentLot mints an order-less lot for organization-wide
	// manual credit grants.
	GrantAdjustmentLot(ctx context.Context, req MintRequest) (*CreditLot, error)
	GetByID(ctx context.Context, id string) (*CreditLot, error)
}

var (
	ErrInvalidOrganization    = errors.New("invalid_organization")
	ErrInvalidProvider        = errors.New("invalid_provider")
	ErrInvalidExpiry          = errors.New("invalid_expiry")
	ErrInvalidQuantity        = errors.New("invalid_quantity")
	ErrInsufficientLotBalance = errors.New("insufficient_lot_balance")
	ErrLotAlreadyExpired      = errors.New("lot_already_expired")
	ErrDuplicateOrder         = errors.New("duplicate_order")
	ErrInvalidID              = errors.New("invalid_lot")
	ErrNotFound               = errors.New("lot_not_found")
)

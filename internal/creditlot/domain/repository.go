package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists lots. Mutating reads take the transaction handle
// explicitly: every read destined for a decrement must lock the row and
// decrement it inside the same transaction, so the allocator and the
// sweeper never race a lot past zero.
type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, lot CreditLot) error
	GetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CreditLot, error)
	FindByOrderID(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (*CreditLot, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*CreditLot, error)
	// ListConsumableForUpdate returns locked active lots with expiry
	// still ahead of now, soonest-expiring first (purchase time breaks
	// ties).
	ListConsumableForUpdate(ctx context.Context, tx *gorm.DB, orgID, providerID snowflake.ID, now time.Time) ([]CreditLot, error)
	// ListExpirableForUpdate claims a batch of past-due active or
	// exhausted lots for the sweeper.
	ListExpirableForUpdate(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]CreditLot, error)
	// DecrementRemaining subtracts take from minutes_remaining, guarded
	// so the row never goes negative. Returns the rows affected.
	DecrementRemaining(ctx context.Context, tx *gorm.DB, id snowflake.ID, take int64, status LotStatus) (int64, error)
	// SetRemaining overwrites remaining/status after an adjustment or
	// reversal recomputed them under lock.
	SetRemaining(ctx context.Context, tx *gorm.DB, id snowflake.ID, remaining int64, status LotStatus) error
	// Expire zeroes remaining and flips the lot to expired.
	Expire(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
}

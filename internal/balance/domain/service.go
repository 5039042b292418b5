package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type GetBalanceRequest struct {
	OrgID snowflake.ID
	// HorizonDays overrides the configured expiring-soon window when
	// positive.
	HorizonDays int
}

// Service derives balances without mutating anything. GetBalance runs
// its reads in a single transaction so the per-provider figures come
// from one snapshot of the lot table.
type Service interface {
	GetBalance(ctx context.Context, req GetBalanceRequest) ([]ProviderBalance, error)
}

// Repository aggregates lot and ledger rows grouped by provider. Both
// queries run on the caller's transaction handle.
type Repository interface {
	AggregateLots(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, now, horizon time.Time) ([]LotAggregate, error)
	ExpiredMinutesByProvider(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) (map[snowflake.ID]int64, error)
}

// LotAggregate is one provider's grouped lot totals.
type LotAggregate struct {
	ProviderID    snowflake.ID
	Total         int64
	LiveRemaining int64
	Available     int64
	ExpiringSoon  int64
}

var ErrInvalidOrganization = errors.New("invalid_organization")

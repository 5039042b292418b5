package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/balance/domain"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) domain.Repository {
	return &repository{db: conn}
}

func (r *repository) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *repository) AggregateLots(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, now, horizon time.Time) ([]domain.LotAggregate, error) {
	var rows []domain.LotAggregate
	err := r.handle(tx).WithContext(ctx).Raw(
		`SELECT provider_id,
			COALESCE(SUM(minutes_purchased), 0) AS total,
			COALESCE(SUM(CASE WHEN status IN (?, ?) THEN minutes_remaining ELSE 0 END), 0) AS live_remaining,
			COALESCE(SUM(CASE WHEN status = ? AND expires_at > ? THEN minutes_remaining ELSE 0 END), 0) AS available,
			COALESCE(SUM(CASE WHEN status = ? AND expires_at > ? AND expires_at <= ? THEN minutes_remaining ELSE 0 END), 0) AS expiring_soon
		 FROM credit_lots
		 WHERE org_id = ?
		 GROUP BY provider_id
		 ORDER BY provider_id ASC`,
		lotdomain.LotStatusActive, lotdomain.LotStatusExhausted,
		lotdomain.LotStatusActive, now,
		lotdomain.LotStatusActive, now, horizon,
		orgID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ExpiredMinutesByProvider(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) (map[snowflake.ID]int64, error) {
	var rows []struct {
		ProviderID snowflake.ID
		Minutes    int64
	}
	err := r.handle(tx).WithContext(ctx).Raw(
		`SELECT provider_id, COALESCE(SUM(minutes_delta), 0) AS minutes
		 FROM credit_ledger_entries
		 WHERE org_id = ? AND reason_code = ?
		 GROUP BY provider_id`,
		orgID, ledgerdomain.ReasonExpiry,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	expired := make(map[snowflake.ID]int64, len(rows))
	for _, row := range rows {
		expired[row.ProviderID] = row.Minutes
	}
	return expired, nil
}

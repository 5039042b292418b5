package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	"github.com/craftwork-labs/minutemarket/pkg/db"
	"gorm.io/gorm"
)

const lotColumns = `id, org_id, provider_id, order_id, minutes_purchased,
	minutes_remaining, status, purchased_at, expires_at, created_at, updated_at`

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

func (r *repository) Insert(ctx context.Context, tx *gorm.DB, lot domain.CreditLot) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`INSERT INTO credit_lots (
			id, org_id, provider_id, order_id, minutes_purchased,
			minutes_remaining, status, purchased_at, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lot.ID,
		lot.OrgID,
		lot.ProviderID,
		lot.OrderID,
		lot.MinutesPurchased,
		lot.MinutesRemaining,
		string(lot.Status),
		lot.PurchasedAt,
		lot.ExpiresAt,
		lot.CreatedAt,
		lot.UpdatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.CreditLot, error) {
	var lot domain.CreditLot
	err := r.handle(conn).WithContext(ctx).Raw(
		`SELECT `+lotColumns+` FROM credit_lots WHERE id = ?`,
		id,
	).First(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) FindByOrderID(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (*domain.CreditLot, error) {
	var lot domain.CreditLot
	err := r.handle(tx).WithContext(ctx).Raw(
		`SELECT `+lotColumns+` FROM credit_lots WHERE order_id = ?`,
		orderID,
	).First(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) GetForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.CreditLot, error) {
	handle := r.handle(tx)
	var lot domain.CreditLot
	err := handle.WithContext(ctx).Raw(
		`SELECT `+lotColumns+` FROM credit_lots WHERE id = ?`+db.LockClause(handle),
		id,
	).First(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) ListConsumableForUpdate(ctx context.Context, tx *gorm.DB, orgID, providerID snowflake.ID, now time.Time) ([]domain.CreditLot, error) {
	handle := r.handle(tx)
	var lots []domain.CreditLot
	err := handle.WithContext(ctx).Raw(
		`SELECT `+lotColumns+`
		 FROM credit_lots
		 WHERE org_id = ? AND provider_id = ? AND status = ? AND expires_at > ?
		 ORDER BY expires_at ASC, purchased_at ASC, id ASC`+db.LockClause(handle),
		orgID,
		providerID,
		string(domain.LotStatusActive),
		now.UTC(),
	).Scan(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *repository) ListExpirableForUpdate(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]domain.CreditLot, error) {
	handle := r.handle(tx)
	var lots []domain.CreditLot
	err := handle.WithContext(ctx).Raw(
		`SELECT `+lotColumns+`
		 FROM credit_lots
		 WHERE status IN (?, ?) AND expires_at <= ?
		 ORDER BY id ASC
		 LIMIT ?`+db.SkipLockedClause(handle),
		string(domain.LotStatusActive),
		string(domain.LotStatusExhausted),
		now.UTC(),
		limit,
	).Scan(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *repository) DecrementRemaining(ctx context.Context, tx *gorm.DB, id snowflake.ID, take int64, status domain.LotStatus) (int64, error) {
	result := r.handle(tx).WithContext(ctx).Exec(
		`UPDATE credit_lots
		 SET minutes_remaining = minutes_remaining - ?, status = ?, updated_at = ?
		 WHERE id = ? AND minutes_remaining >= ?`,
		take,
		string(status),
		time.Now().UTC(),
		id,
		take,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) SetRemaining(ctx context.Context, tx *gorm.DB, id snowflake.ID, remaining int64, status domain.LotStatus) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`UPDATE credit_lots
		 SET minutes_remaining = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		remaining,
		string(status),
		time.Now().UTC(),
		id,
	).Error
}

func (r *repository) Expire(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`UPDATE credit_lots
		 SET minutes_remaining = 0, status = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		string(domain.LotStatusExpired),
		time.Now().UTC(),
		id,
		string(domain.LotStatusActive),
		string(domain.LotStatusExhausted),
	).Error
}

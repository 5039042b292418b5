package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/order/domain"
	"github.com/craftwork-labs/minutemarket/pkg/db"
	"gorm.io/gorm"
)

const orderColumns = `id, org_id, provider_id, bundle_id, amount_cents, currency,
	status, external_session_id, paid_at, created_at, updated_at`

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

func (r *repository) Insert(ctx context.Context, tx *gorm.DB, order domain.Order) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, org_id, provider_id, bundle_id, amount_cents, currency,
			status, external_session_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrgID,
		order.ProviderID,
		order.BundleID,
		order.AmountCents,
		order.Currency,
		order.Status,
		order.ExternalSessionID,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := r.handle(conn).WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`,
		id,
	).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindBySessionForUpdate(ctx context.Context, tx *gorm.DB, sessionID string) (*domain.Order, error) {
	h := r.handle(tx)
	var order domain.Order
	err := h.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE external_session_id = ?`+db.LockClause(h),
		sessionID,
	).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	h := r.handle(tx)
	var order domain.Order
	err := h.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`+db.LockClause(h),
		id,
	).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status domain.OrderStatus, paidAt *time.Time) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, paid_at = COALESCE(?, paid_at), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status,
		paidAt,
		id,
	).Error
}

func (r *repository) ListByOrganization(ctx context.Context, conn *gorm.DB, orgID snowflake.ID) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.handle(conn).WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE org_id = ? ORDER BY created_at DESC, id DESC LIMIT 200`,
		orgID,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

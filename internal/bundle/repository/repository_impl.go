package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, bundle domain.CreditBundle) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO credit_bundles (
			id, provider_id, name, hours, billing_type, price_cents, currency,
			active, external_price_ref, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bundle.ID,
		bundle.ProviderID,
		bundle.Name,
		bundle.Hours,
		string(bundle.BillingType),
		bundle.PriceCents,
		bundle.Currency,
		bundle.Active,
		bundle.ExternalPrice,
		bundle.CreatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.CreditBundle, error) {
	var bundle domain.CreditBundle
	err := r.db.WithContext(ctx).
		Table("credit_bundles").
		Select(`id, provider_id, name, hours, billing_type, price_cents, currency,
			active, external_price_ref AS external_price, created_at, deactivated_at, superseded_by_id`).
		Where("id = ?", id).
		First(&bundle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) ListByProvider(ctx context.Context, providerID snowflake.ID, activeOnly bool) ([]domain.CreditBundle, error) {
	query := r.db.WithContext(ctx).
		Table("credit_bundles").
		Select(`id, provider_id, name, hours, billing_type, price_cents, currency,
			active, external_price_ref AS external_price, created_at, deactivated_at, superseded_by_id`).
		Where("provider_id = ?", providerID).
		Order("created_at ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var bundles []domain.CreditBundle
	if err := query.Find(&bundles).Error; err != nil {
		return nil, err
	}
	return bundles, nil
}

func (r *repository) Supersede(ctx context.Context, oldID, newID snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE credit_bundles
		 SET active = ?, deactivated_at = ?, superseded_by_id = ?
		 WHERE id = ? AND active = ?`,
		false,
		time.Now().UTC(),
		newID,
		oldID,
		true,
	).Error
}

func (r *repository) Deactivate(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE credit_bundles SET active = ?, deactivated_at = ? WHERE id = ? AND active = ?`,
		false,
		time.Now().UTC(),
		id,
		true,
	).Error
}

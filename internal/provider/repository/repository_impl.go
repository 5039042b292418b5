package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/provider/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, provider domain.ServiceProvider) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO service_providers (id, name, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		provider.ID,
		provider.Name,
		provider.Slug,
		provider.CreatedAt,
		provider.UpdatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.ServiceProvider, error) {
	var provider domain.ServiceProvider
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at FROM service_providers WHERE id = ?`,
		id,
	).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *repository) List(ctx context.Context) ([]domain.ServiceProvider, error) {
	var providers []domain.ServiceProvider
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at FROM service_providers ORDER BY created_at ASC`,
	).Scan(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

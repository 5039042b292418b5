package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, name, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = ?`,
		id,
	).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at FROM organizations WHERE slug = ?`,
		slug,
	).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) List(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at FROM organizations ORDER BY created_at ASC`,
	).Scan(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

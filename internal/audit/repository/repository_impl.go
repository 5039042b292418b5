package repository

import (
	"context"

	"github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"gorm.io/gorm"
)

// Repository persists audit events. Insert takes the handle explicitly
// so callers can bind the write to their own transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *domain.AuditEvent) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*domain.AuditEvent, error)
}

type ListFilter struct {
	OrgID      int64
	EntityType string
	Action     string
	StartAt    *string
	EndAt      *string
	Cursor     *domain.AuditCursor
	Limit      int
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.AuditEvent) error {
	if event == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_events (
			id, org_id, provider_id, entity_type, entity_id, action,
			actor_type, actor_user_id, before_json, after_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.OrgID,
		event.ProviderID,
		event.EntityType,
		event.EntityID,
		event.Action,
		event.ActorType,
		event.ActorUserID,
		event.Before,
		event.After,
		event.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*domain.AuditEvent, error) {
	query := db.WithContext(ctx).
		Table("audit_events").
		Select(`id, org_id, provider_id, entity_type, entity_id, action,
			actor_type, actor_user_id, before_json AS before, after_json AS after, created_at`).
		Where("org_id = ?", filter.OrgID).
		Order("created_at DESC, id DESC")

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.StartAt != nil {
		query = query.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		query = query.Where("created_at <= ?", *filter.EndAt)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	// fetch one extra row to detect another page
	query = query.Limit(limit + 1)

	var events []*domain.AuditEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

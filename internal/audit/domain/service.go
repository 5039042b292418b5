package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/pkg/db/pagination"
	"gorm.io/gorm"
)

// Record captures one state change. Before and After are marshalled to
// JSON snapshots; either may be nil (creation has no before, deletion no
// after).
type Record struct {
	OrgID      *snowflake.ID
	ProviderID *snowflake.ID
	EntityType string
	EntityID   string
	Action     string
	ActorType  string
	ActorUser  *snowflake.ID
	Before     any
	After      any
}

type ListRequest struct {
	pagination.Pagination
	OrgID      snowflake.ID
	EntityType string
	Action     string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	Events []AuditEvent `json:"events"`
}

// Service writes audit events on the caller's transaction so a snapshot
// never exists without the mutation it documents, and serves the
// activity feed.
type Service interface {
	Write(ctx context.Context, tx *gorm.DB, rec Record) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEntity       = errors.New("invalid_entity")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateCheckoutRequest struct {
	OrgID    string `json:"org_id"`
	BundleID string `json:"bundle_id"`
}

// Service owns the order lifecycle. MarkPaid is idempotent on the
// external session id: a redelivered confirmation finds the order
// already paid and returns it unchanged.
type Service interface {
	CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, externalSessionID string) (*Order, bool, error)
	Cancel(ctx context.Context, orderID string) (*Order, error)
	MarkRefunded(ctx context.Context, orderID string) (*Order, error)
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Order, error)
}

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, order Order) error
	GetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	// FindBySessionForUpdate locks the order row so concurrent
	// confirmation deliveries serialize on the status transition.
	FindBySessionForUpdate(ctx context.Context, tx *gorm.DB, sessionID string) (*Order, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status OrderStatus, paidAt *time.Time) error
	ListByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Order, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidBundle       = errors.New("invalid_bundle")
	ErrInvalidSession      = errors.New("invalid_session")
	ErrInvalidOrder        = errors.New("invalid_order")
	ErrNotFound            = errors.New("order_not_found")
	ErrNotPending          = errors.New("order_not_pending")
	ErrNotPaid             = errors.New("order_not_paid")
)

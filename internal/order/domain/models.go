// Package domain contains purchase orders for credit bundles.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Order is one purchase attempt for a bundle. It transitions pending →
// paid exactly once, keyed on the external payment session id so
// redelivered confirmations are absorbed.
type Order struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID             snowflake.ID `gorm:"not null;index:idx_orders_org" json:"org_id"`
	ProviderID        snowflake.ID `gorm:"not null;index" json:"provider_id"`
	BundleID          snowflake.ID `gorm:"not null;index" json:"bundle_id"`
	AmountCents       int64        `gorm:"not null" json:"amount_cents"`
	Currency          string       `gorm:"type:text;not null" json:"currency"`
	Status            OrderStatus  `gorm:"type:text;not null;index" json:"status"`
	ExternalSessionID string       `gorm:"type:text;not null;uniqueIndex:ux_orders_session" json:"external_session_id"`
	PaidAt            *time.Time   `json:"paid_at,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// Package domain contains persistence models for credit bundles.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingType distinguishes one-time purchases from recurring plans.
type BillingType string

const (
	BillingTypeOneTime   BillingType = "one_time"
	BillingTypeRecurring BillingType = "recurring"
)

// CreditBundle is a provider-defined purchasable product. Once a lot
// references a bundle the row is immutable; edits deactivate it and
// create a new definition effective going forward.
type CreditBundle struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ProviderID     snowflake.ID `gorm:"not null;index" json:"provider_id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	Hours          int64        `gorm:"not null" json:"hours"`
	BillingType    BillingType  `gorm:"type:text;not null" json:"billing_type"`
	PriceCents     int64        `gorm:"not null" json:"price_cents"`
	Currency       string       `gorm:"type:text;not null" json:"currency"`
	Active         bool         `gorm:"not null;default:true" json:"active"`
	ExternalPrice  string       `gorm:"type:text;column:external_price_ref" json:"external_price_ref,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	DeactivatedAt  *time.Time   `json:"deactivated_at,omitempty"`
	SupersededByID *snowflake.ID `json:"superseded_by_id,omitempty"`
}

// TableName sets the database table name.
func (CreditBundle) TableName() string { return "credit_bundles" }

// Minutes is the minute grant a paid order of this bundle mints.
func (b CreditBundle) Minutes() int64 {
	return b.Hours * 60
}

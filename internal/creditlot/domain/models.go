// Package domain contains the credit lot model and its lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// LotStatus is the three-state lot lifecycle.
type LotStatus string

const (
	// LotStatusActive: remaining > 0 and not past expiry.
	LotStatusActive LotStatus = "active"
	// LotStatusExhausted: remaining = 0 and not yet past expiry.
	LotStatusExhausted LotStatus = "exhausted"
	// LotStatusExpired: past expiry regardless of remaining.
	LotStatusExpired LotStatus = "expired"
)

// CreditLot is a discrete batch of purchased or granted minutes with its
// own expiry. Created once, then only decremented or status-flipped;
// corrections happen via adjustment entries, never edits.
type CreditLot struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID  `gorm:"not null;index:idx_credit_lots_org_provider,priority:1" json:"org_id"`
	ProviderID       snowflake.ID  `gorm:"not null;index:idx_credit_lots_org_provider,priority:2" json:"provider_id"`
	OrderID          *snowflake.ID `gorm:"uniqueIndex:ux_credit_lots_order" json:"order_id,omitempty"`
	MinutesPurchased int64         `gorm:"not null" json:"minutes_purchased"`
	MinutesRemaining int64         `gorm:"not null" json:"minutes_remaining"`
	Status           LotStatus     `gorm:"type:text;not null;index" json:"status"`
	PurchasedAt      time.Time     `gorm:"not null" json:"purchased_at"`
	ExpiresAt        time.Time     `gorm:"not null;index" json:"expires_at"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CreditLot) TableName() string { return "credit_lots" }

// NextStatus is the single transition function for the lot lifecycle.
// Expiry dominates: a past-due lot is expired no matter its remaining
// minutes.
func NextStatus(remaining int64, expiresAt, now time.Time) LotStatus {
	if !now.Before(expiresAt) {
		return LotStatusExpired
	}
	if remaining <= 0 {
		return LotStatusExhausted
	}
	return LotStatusActive
}

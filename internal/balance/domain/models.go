// Package domain contains the read-side balance aggregates.
package domain

import (
	"github.com/bwmarrin/snowflake"
)

// ProviderBalance is the derived position of one organization against
// one provider. All figures come from lot rows plus expiry ledger
// entries within one consistent snapshot.
type ProviderBalance struct {
	ProviderID snowflake.ID `json:"provider_id"`
	// TotalMinutes is the sum of minutes_purchased across every lot the
	// pair has ever had, expired ones included.
	TotalMinutes int64 `json:"total_minutes"`
	// UsedMinutes is what was actually consumed: total minus live
	// remaining minus forfeited-at-expiry minutes.
	UsedMinutes int64 `json:"used_minutes"`
	// AvailableMinutes sums minutes_remaining over active lots only.
	AvailableMinutes int64 `json:"available_minutes"`
	// ExpiringSoonMinutes sums minutes_remaining over active lots whose
	// expiry falls within the horizon.
	ExpiringSoonMinutes int64 `json:"expiring_soon_minutes"`
}

// Package domain contains the expiration sweep contract.
package domain

import (
	"context"
	"time"
)

// Report aggregates one sweep run. A lot that was already exhausted
// when it expired counts toward LotsExpired with zero minutes.
type Report struct {
	LotsExpired         int64 `json:"lots_expired"`
	TotalMinutesExpired int64 `json:"total_minutes_expired"`
}

// Service expires past-due lots in batches. Sweep is idempotent:
// already-expired lots never match the claim query, so a rerun for the
// same window adds nothing to the report.
type Service interface {
	Sweep(ctx context.Context, now time.Time) (Report, error)
}

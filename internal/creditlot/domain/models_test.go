package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name      string
		remaining int64
		expiresAt time.Time
		want      LotStatus
	}{
		{"active with balance", 100, future, LotStatusActive},
		{"exhausted at zero", 0, future, LotStatusExhausted},
		{"expired beats exhausted", 0, past, LotStatusExpired},
		{"expired with balance left", 50, past, LotStatusExpired},
		{"expired exactly at expiry", 50, now, LotStatusExpired},
		{"negative treated as exhausted", -1, future, LotStatusExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStatus(tt.remaining, tt.expiresAt, now))
		})
	}
}

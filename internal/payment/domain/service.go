// Package domain contains the inbound payment-confirmation contract.
package domain

import (
	"context"
	"errors"
	"time"

	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	orderdomain "github.com/craftwork-labs/minutemarket/internal/order/domain"
)

// Confirmation is the fact a payment collaborator delivers once a
// checkout session settles. Deliveries may repeat; the whole flow is
// idempotent on the session id and the order id behind it.
type Confirmation struct {
	ExternalSessionID string `json:"external_session_id"`
	// MinutesGranted overrides the bundle's minute grant when positive
	// (proration, promo top-ups).
	MinutesGranted int64 `json:"minutes_granted,omitempty"`
	// ExpiresAt overrides the default validity window when set.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type ConfirmResult struct {
	Order *orderdomain.Order   `json:"order"`
	Lot   *lotdomain.CreditLot `json:"lot"`
}

// Service reacts to payment-succeeded facts: it marks the order paid
// and mints the credit lot the purchase bought.
type Service interface {
	Confirm(ctx context.Context, conf Confirmation) (*ConfirmResult, error)
}

var ErrInvalidConfirmation = errors.New("invalid_confirmation")

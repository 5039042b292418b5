package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreditBundle, error)
	// Replace deactivates the current definition and creates a new one
	// effective going forward; referenced bundles are never edited in
	// place.
	Replace(ctx context.Context, bundleID string, req CreateRequest) (*CreditBundle, error)
	Deactivate(ctx context.Context, bundleID string) error
	GetByID(ctx context.Context, id string) (*CreditBundle, error)
	ListByProvider(ctx context.Context, providerID string, activeOnly bool) ([]CreditBundle, error)
}

type Repository interface {
	Create(ctx context.Context, bundle CreditBundle) error
	GetByID(ctx context.Context, id snowflake.ID) (*CreditBundle, error)
	ListByProvider(ctx context.Context, providerID snowflake.ID, activeOnly bool) ([]CreditBundle, error)
	Supersede(ctx context.Context, oldID, newID snowflake.ID) error
	Deactivate(ctx context.Context, id snowflake.ID) error
}

type CreateRequest struct {
	ProviderID       string `json:"provider_id"`
	Name             string `json:"name"`
	Hours            int64  `json:"hours"`
	BillingType      string `json:"billing_type"`
	PriceCents       int64  `json:"price_cents"`
	Currency         string `json:"currency"`
	ExternalPriceRef string `json:"external_price_ref"`
}

var (
	ErrInvalidProvider    = errors.New("invalid_provider")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidHours       = errors.New("invalid_hours")
	ErrInvalidBillingType = errors.New("invalid_billing_type")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidID          = errors.New("invalid_bundle")
	ErrNotFound           = errors.New("bundle_not_found")
	ErrInactive           = errors.New("bundle_inactive")
)

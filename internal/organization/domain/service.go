package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Organization, error)
	GetByID(ctx context.Context, id string) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context) ([]Organization, error)
}

type CreateRequest struct {
	Name string `json:"name"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidID    = errors.New("invalid_organization")
	ErrNotFound     = errors.New("organization_not_found")
	ErrSlugConflict = errors.New("organization_slug_conflict")
)

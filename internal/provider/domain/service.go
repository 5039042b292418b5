package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*ServiceProvider, error)
	GetByID(ctx context.Context, id string) (*ServiceProvider, error)
	List(ctx context.Context) ([]ServiceProvider, error)
}

type Repository interface {
	Create(ctx context.Context, provider ServiceProvider) error
	GetByID(ctx context.Context, id snowflake.ID) (*ServiceProvider, error)
	List(ctx context.Context) ([]ServiceProvider, error)
}

type CreateRequest struct {
	Name string `json:"name"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidID    = errors.New("invalid_provider")
	ErrNotFound     = errors.New("provider_not_found")
	ErrSlugConflict = errors.New("provider_slug_conflict")
)

package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/provider/domain"
	"github.com/craftwork-labs/minutemarket/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("provider.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.ServiceProvider, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	provider := domain.ServiceProvider{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, provider); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugConflict
		}
		return nil, err
	}
	return &provider, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.ServiceProvider, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.GetByID(ctx, parsed)
}

func (s *Service) List(ctx context.Context) ([]domain.ServiceProvider, error) {
	return s.repo.List(ctx)
}

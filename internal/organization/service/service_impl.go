package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/organization/domain"
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
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, org); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugConflict
		}
		return nil, err
	}
	return &org, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.GetByID(ctx, parsed)
}

func (s *Service) GetBySlug(ctx context.Context, sl string) (*domain.Organization, error) {
	sl = strings.TrimSpace(sl)
	if sl == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.GetBySlug(ctx, sl)
}

func (s *Service) List(ctx context.Context) ([]domain.Organization, error) {
	return s.repo.List(ctx)
}

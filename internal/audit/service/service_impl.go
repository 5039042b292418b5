package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"github.com/craftwork-labs/minutemarket/internal/audit/repository"
	"github.com/craftwork-labs/minutemarket/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Write(ctx context.Context, tx *gorm.DB, rec auditdomain.Record) error {
	if tx == nil {
		tx = s.db
	}

	entityType := strings.TrimSpace(rec.EntityType)
	entityID := strings.TrimSpace(rec.EntityID)
	if entityType == "" || entityID == "" {
		return auditdomain.ErrInvalidEntity
	}
	action := strings.TrimSpace(rec.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	actorType := strings.TrimSpace(rec.ActorType)
	if actorType == "" {
		actorType = "system"
	}

	before, err := marshalSnapshot(rec.Before)
	if err != nil {
		return err
	}
	after, err := marshalSnapshot(rec.After)
	if err != nil {
		return err
	}

	event := auditdomain.AuditEvent{
		ID:          s.genID.Generate(),
		OrgID:       rec.OrgID,
		ProviderID:  rec.ProviderID,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		ActorType:   actorType,
		ActorUserID: rec.ActorUser,
		Before:      before,
		After:       after,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, tx, &event); err != nil {
		s.log.Warn("failed to write audit event", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	if req.OrgID == 0 {
		return auditdomain.ListResponse{}, auditdomain.ErrInvalidOrganization
	}
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.AuditCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	filter := repository.ListFilter{
		OrgID:      int64(req.OrgID),
		EntityType: req.EntityType,
		Action:     req.Action,
		Cursor:     cursor,
		Limit:      pageSize,
	}
	if req.StartAt != nil {
		start := req.StartAt.UTC().Format(time.RFC3339)
		filter.StartAt = &start
	}
	if req.EndAt != nil {
		end := req.EndAt.UTC().Format(time.RFC3339)
		filter.EndAt = &end
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.AuditEvent) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	events := make([]auditdomain.AuditEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		events = append(events, *item)
	}

	resp := auditdomain.ListResponse{Events: events}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func marshalSnapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

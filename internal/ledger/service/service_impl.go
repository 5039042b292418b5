package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
	}
}

// Append validates and inserts one immutable entry on the caller's
// transaction. The entry id may be preset when the caller needs to
// reference it from other rows written in the same transaction.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, entry *ledgerdomain.CreditLedgerEntry) error {
	if tx == nil {
		tx = s.db
	}
	if entry.OrgID == 0 {
		return ledgerdomain.ErrInvalidOrganization
	}
	if entry.ProviderID == 0 {
		return ledgerdomain.ErrInvalidProvider
	}
	switch entry.EntryType {
	case ledgerdomain.EntryTypeCredit, ledgerdomain.EntryTypeDebit:
	default:
		return ledgerdomain.ErrInvalidEntryType
	}
	switch entry.ReasonCode {
	case ledgerdomain.ReasonPurchase, ledgerdomain.ReasonUsage, ledgerdomain.ReasonAdjustment,
		ledgerdomain.ReasonExpiry, ledgerdomain.ReasonRefund:
	default:
		return ledgerdomain.ErrInvalidReasonCode
	}
	if entry.MinutesDelta <= 0 {
		return ledgerdomain.ErrInvalidDelta
	}
	switch entry.ActorType {
	case ledgerdomain.ActorTypeUser, ledgerdomain.ActorTypeSystem:
	default:
		return ledgerdomain.ErrInvalidActor
	}

	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	return tx.WithContext(ctx).Exec(
		`INSERT INTO credit_ledger_entries (
			id, org_id, provider_id, entry_type, reason_code, minutes_delta,
			actor_type, actor_user_id, order_id, lot_id, work_log_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.OrgID,
		entry.ProviderID,
		string(entry.EntryType),
		string(entry.ReasonCode),
		entry.MinutesDelta,
		string(entry.ActorType),
		entry.ActorUserID,
		entry.OrderID,
		entry.LotID,
		entry.WorkLogID,
		entry.CreatedAt,
	).Error
}

func (s *Service) List(ctx context.Context, filter ledgerdomain.ListFilter) ([]ledgerdomain.CreditLedgerEntry, error) {
	if filter.OrgID == 0 {
		return nil, ledgerdomain.ErrInvalidOrganization
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	query := s.db.WithContext(ctx).
		Table("credit_ledger_entries").
		Where("org_id = ?", filter.OrgID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if filter.ReasonCode != "" {
		query = query.Where("reason_code = ?", string(filter.ReasonCode))
	}
	if filter.StartAt != nil {
		query = query.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		query = query.Where("created_at <= ?", filter.EndAt.UTC())
	}

	var entries []ledgerdomain.CreditLedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/consumption/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) domain.Repository {
	return &repository{db: conn}
}

func (r *repository) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *repository) InsertWorkLog(ctx context.Context, tx *gorm.DB, workLog domain.WorkLog) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`INSERT INTO work_logs (
			id, org_id, provider_id, minutes_spent, category,
			performed_at, performed_by, is_billable, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		workLog.ID,
		workLog.OrgID,
		workLog.ProviderID,
		workLog.MinutesSpent,
		workLog.Category,
		workLog.PerformedAt,
		workLog.PerformedBy,
		workLog.IsBillable,
		workLog.CreatedAt,
	).Error
}

func (r *repository) GetWorkLog(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.WorkLog, error) {
	var workLog domain.WorkLog
	err := r.handle(tx).WithContext(ctx).Raw(
		`SELECT id, org_id, provider_id, minutes_spent, category,
			performed_at, performed_by, is_billable, reversed_at, created_at
		 FROM work_logs WHERE id = ?`,
		id,
	).First(&workLog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWorkLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &workLog, nil
}

func (r *repository) MarkWorkLogReversed(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`UPDATE work_logs SET reversed_at = ? WHERE id = ? AND reversed_at IS NULL`,
		at.UTC(),
		id,
	).Error
}

func (r *repository) InsertConsumption(ctx context.Context, tx *gorm.DB, row domain.LotConsumption) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`INSERT INTO lot_consumptions (
			id, credit_lot_id, work_log_id, adjustment_ledger_entry_id,
			minutes_consumed, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.CreditLotID,
		row.WorkLogID,
		row.AdjustmentLedgerEntryID,
		row.MinutesConsumed,
		row.CreatedAt,
	).Error
}

func (r *repository) ListActiveByWorkLog(ctx context.Context, tx *gorm.DB, workLogID snowflake.ID) ([]domain.LotConsumption, error) {
	var rows []domain.LotConsumption
	err := r.handle(tx).WithContext(ctx).Raw(
		`SELECT id, credit_lot_id, work_log_id, adjustment_ledger_entry_id,
			minutes_consumed, reversed_at, created_at
		 FROM lot_consumptions
		 WHERE work_log_id = ? AND reversed_at IS NULL
		 ORDER BY id ASC`,
		workLogID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkConsumptionsReversed(ctx context.Context, tx *gorm.DB, workLogID snowflake.ID, at time.Time) error {
	return r.handle(tx).WithContext(ctx).Exec(
		`UPDATE lot_consumptions SET reversed_at = ? WHERE work_log_id = ? AND reversed_at IS NULL`,
		at.UTC(),
		workLogID,
	).Error
}

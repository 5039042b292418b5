package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/craftwork-labs/minutemarket/internal/audit/repository"
	auditservice "github.com/craftwork-labs/minutemarket/internal/audit/service"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	"github.com/craftwork-labs/minutemarket/internal/creditlot/repository"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	ledgerservice "github.com/craftwork-labs/minutemarket/internal/ledger/service"
	"github.com/craftwork-labs/minutemarket/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   lotdomain.Service
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()

	db := testsupport.OpenTestDB(t, name)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{DB: db, Log: log, GenID: node})
	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepository.Provide()})

	svc := NewService(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      repository.NewRepository(db),
		LedgerSvc: ledgerSvc,
		AuditSvc:  auditSvc,
		Clock:     fc,
	})
	return &fixture{db: db, node: node, clock: fc, svc: svc}
}

func (f *fixture) mintRequest() lotdomain.MintRequest {
	orderID := f.node.Generate()
	return lotdomain.MintRequest{
		OrgID:      f.node.Generate(),
		ProviderID: f.node.Generate(),
		OrderID:    &orderID,
		Minutes:    120,
		ExpiresAt:  f.clock.Now().Add(30 * 24 * time.Hour),
		Actor:      ledgerdomain.SystemActor(),
	}
}

func TestMintLot_CreatesLotAndLedgerEntry(t *testing.T) {
	f := newFixture(t, "TestMintLot_CreatesLotAndLedgerEntry")
	ctx := context.Background()

	req := f.mintRequest()
	lot, err := f.svc.MintLot(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, lot)
	assert.Equal(t, int64(120), lot.MinutesPurchased)
	assert.Equal(t, int64(120), lot.MinutesRemaining)
	assert.Equal(t, lotdomain.LotStatusActive, lot.Status)

	var entries []ledgerdomain.CreditLedgerEntry
	require.NoError(t, f.db.Raw(`SELECT * FROM credit_ledger_entries WHERE org_id = ?`, req.OrgID).Scan(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, ledgerdomain.EntryTypeCredit, entries[0].EntryType)
	assert.Equal(t, ledgerdomain.ReasonPurchase, entries[0].ReasonCode)
	assert.Equal(t, int64(120), entries[0].MinutesDelta)

	var auditCount int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM audit_events WHERE action = 'lot.minted'`).Scan(&auditCount).Error)
	assert.Equal(t, int64(1), auditCount)
}

func TestMintLot_IdempotentPerOrder(t *testing.T) {
	f := newFixture(t, "TestMintLot_IdempotentPerOrder")
	ctx := context.Background()

	req := f.mintRequest()
	first, err := f.svc.MintLot(ctx, req)
	require.NoError(t, err)

	second, err := f.svc.MintLot(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var lotCount, entryCount int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM credit_lots WHERE order_id = ?`, *req.OrderID).Scan(&lotCount).Error)
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM credit_ledger_entries WHERE order_id = ?`, *req.OrderID).Scan(&entryCount).Error)
	assert.Equal(t, int64(1), lotCount)
	assert.Equal(t, int64(1), entryCount)
}

func TestMintLot_InvalidQuantity(t *testing.T) {
	f := newFixture(t, "TestMintLot_InvalidQuantity")

	req := f.mintRequest()
	req.Minutes = 0
	_, err := f.svc.MintLot(context.Background(), req)
	assert.ErrorIs(t, err, lotdomain.ErrInvalidQuantity)

	req.Minutes = -30
	_, err = f.svc.MintLot(context.Background(), req)
	assert.ErrorIs(t, err, lotdomain.ErrInvalidQuantity)
}

func TestMintLot_InvalidExpiry(t *testing.T) {
	f := newFixture(t, "TestMintLot_InvalidExpiry")

	req := f.mintRequest()
	req.ExpiresAt = f.clock.Now().Add(-time.Hour)
	_, err := f.svc.MintLot(context.Background(), req)
	assert.ErrorIs(t, err, lotdomain.ErrInvalidExpiry)
}

func TestGrantAdjustmentLot_WritesAdjustmentReason(t *testing.T) {
	f := newFixture(t, "TestGrantAdjustmentLot_WritesAdjustmentReason")
	ctx := context.Background()

	req := f.mintRequest()
	req.OrderID = nil
	lot, err := f.svc.GrantAdjustmentLot(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, lot.OrderID)

	var reason string
	require.NoError(t, f.db.Raw(`SELECT reason_code FROM credit_ledger_entries WHERE lot_id = ?`, lot.ID).Scan(&reason).Error)
	assert.Equal(t, string(ledgerdomain.ReasonAdjustment), reason)
}

func TestAdjustLot_NegativeDeltaClampedAtRemaining(t *testing.T) {
	f := newFixture(t, "TestAdjustLot_NegativeDeltaClampedAtRemaining")
	ctx := context.Background()

	lot, err := f.svc.MintLot(ctx, f.mintRequest())
	require.NoError(t, err)

	_, err = f.svc.AdjustLot(ctx, lotdomain.AdjustRequest{
		LotID:        lot.ID,
		DeltaMinutes: -121,
		Actor:        ledgerdomain.SystemActor(),
	})
	assert.ErrorIs(t, err, lotdomain.ErrInsufficientLotBalance)

	adjusted, err := f.svc.AdjustLot(ctx, lotdomain.AdjustRequest{
		LotID:        lot.ID,
		DeltaMinutes: -120,
		Actor:        ledgerdomain.SystemActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), adjusted.MinutesRemaining)
	assert.Equal(t, lotdomain.LotStatusExhausted, adjusted.Status)
}

func TestAdjustLot_PositiveDeltaReactivatesExhausted(t *testing.T) {
	f := newFixture(t, "TestAdjustLot_PositiveDeltaReactivatesExhausted")
	ctx := context.Background()

	lot, err := f.svc.MintLot(ctx, f.mintRequest())
	require.NoError(t, err)

	_, err = f.svc.AdjustLot(ctx, lotdomain.AdjustRequest{LotID: lot.ID, DeltaMinutes: -120, Actor: ledgerdomain.SystemActor()})
	require.NoError(t, err)

	userID := f.node.Generate()
	adjusted, err := f.svc.AdjustLot(ctx, lotdomain.AdjustRequest{
		LotID:        lot.ID,
		DeltaMinutes: 45,
		Actor:        ledgerdomain.UserActor(userID),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(45), adjusted.MinutesRemaining)
	assert.Equal(t, lotdomain.LotStatusActive, adjusted.Status)

	var entry ledgerdomain.CreditLedgerEntry
	require.NoError(t, f.db.Raw(
		`SELECT * FROM credit_ledger_entries WHERE lot_id = ? AND entry_type = ? ORDER BY id DESC LIMIT 1`,
		lot.ID, ledgerdomain.EntryTypeCredit,
	).First(&entry).Error)
	assert.Equal(t, ledgerdomain.ReasonAdjustment, entry.ReasonCode)
	assert.Equal(t, int64(45), entry.MinutesDelta)
	require.NotNil(t, entry.ActorUserID)
	assert.Equal(t, userID, *entry.ActorUserID)
}

func TestAdjustLot_PositiveDeltaOnExpiredLotRejected(t *testing.T) {
	f := newFixture(t, "TestAdjustLot_PositiveDeltaOnExpiredLotRejected")
	ctx := context.Background()

	req := f.mintRequest()
	req.ExpiresAt = f.clock.Now().Add(time.Hour)
	lot, err := f.svc.MintLot(ctx, req)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	_, err = f.svc.AdjustLot(ctx, lotdomain.AdjustRequest{
		LotID:        lot.ID,
		DeltaMinutes: 30,
		Actor:        ledgerdomain.SystemActor(),
	})
	assert.ErrorIs(t, err, lotdomain.ErrLotAlreadyExpired)
}

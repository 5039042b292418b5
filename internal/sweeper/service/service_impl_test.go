package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/craftwork-labs/minutemarket/internal/audit/repository"
	auditservice "github.com/craftwork-labs/minutemarket/internal/audit/service"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/config"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	lotrepository "github.com/craftwork-labs/minutemarket/internal/creditlot/repository"
	lotservice "github.com/craftwork-labs/minutemarket/internal/creditlot/service"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	ledgerservice "github.com/craftwork-labs/minutemarket/internal/ledger/service"
	"github.com/craftwork-labs/minutemarket/internal/sweeper/domain"
	"github.com/craftwork-labs/minutemarket/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clock      *clock.FakeClock
	lotSvc     lotdomain.Service
	svc        domain.Service
	orgID      snowflake.ID
	providerID snowflake.ID
}

func newFixture(t *testing.T, name string, batchSize int) *fixture {
	t.Helper()

	db := testsupport.OpenTestDB(t, name)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{DB: db, Log: log, GenID: node})
	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepository.Provide()})
	lotRepo := lotrepository.NewRepository(db)

	lotSvc := lotservice.NewService(lotservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      lotRepo,
		LedgerSvc: ledgerSvc,
		AuditSvc:  auditSvc,
		Clock:     fc,
	})
	svc := NewService(Params{
		DB:        db,
		Log:       log,
		Config:    config.Config{SweepBatchSize: batchSize},
		LotRepo:   lotRepo,
		LedgerSvc: ledgerSvc,
		AuditSvc:  auditSvc,
		Clock:     fc,
	})

	return &fixture{
		db:         db,
		node:       node,
		clock:      fc,
		lotSvc:     lotSvc,
		svc:        svc,
		orgID:      node.Generate(),
		providerID: node.Generate(),
	}
}

func (f *fixture) mintLot(t *testing.T, minutes int64, validity time.Duration) *lotdomain.CreditLot {
	t.Helper()
	orderID := f.node.Generate()
	lot, err := f.lotSvc.MintLot(context.Background(), lotdomain.MintRequest{
		OrgID:      f.orgID,
		ProviderID: f.providerID,
		OrderID:    &orderID,
		Minutes:    minutes,
		ExpiresAt:  f.clock.Now().Add(validity),
		Actor:      ledgerdomain.SystemActor(),
	})
	require.NoError(t, err)
	return lot
}

func (f *fixture) drainLot(t *testing.T, id snowflake.ID) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`UPDATE credit_lots SET minutes_remaining = 0, status = 'exhausted' WHERE id = ?`, id,
	).Error)
}

func TestSweep_ExpiresPastDueLotsOnly(t *testing.T) {
	f := newFixture(t, "TestSweep_ExpiresPastDueLotsOnly", 200)

	stale := f.mintLot(t, 40, 24*time.Hour)
	fresh := f.mintLot(t, 60, 30*24*time.Hour)

	f.clock.Advance(48 * time.Hour)

	report, err := f.svc.Sweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.LotsExpired)
	assert.Equal(t, int64(40), report.TotalMinutesExpired)

	var status string
	require.NoError(t, f.db.Raw(`SELECT status FROM credit_lots WHERE id = ?`, stale.ID).Scan(&status).Error)
	assert.Equal(t, string(lotdomain.LotStatusExpired), status)
	require.NoError(t, f.db.Raw(`SELECT status FROM credit_lots WHERE id = ?`, fresh.ID).Scan(&status).Error)
	assert.Equal(t, string(lotdomain.LotStatusActive), status)

	var entries []ledgerdomain.CreditLedgerEntry
	require.NoError(t, f.db.Raw(
		`SELECT * FROM credit_ledger_entries WHERE reason_code = 'expiry'`,
	).Scan(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, ledgerdomain.EntryTypeDebit, entries[0].EntryType)
	assert.Equal(t, int64(40), entries[0].MinutesDelta)
	require.NotNil(t, entries[0].LotID)
	assert.Equal(t, stale.ID, *entries[0].LotID)

	var audits int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(*) FROM audit_events WHERE action = 'lot.expired'`,
	).Scan(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestSweep_SecondRunIsNoOp(t *testing.T) {
	f := newFixture(t, "TestSweep_SecondRunIsNoOp", 200)

	f.mintLot(t, 40, 24*time.Hour)
	f.clock.Advance(48 * time.Hour)

	report, err := f.svc.Sweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.LotsExpired)

	report, err = f.svc.Sweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.LotsExpired)
	assert.Equal(t, int64(0), report.TotalMinutesExpired)

	var entries int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(*) FROM credit_ledger_entries WHERE reason_code = 'expiry'`,
	).Scan(&entries).Error)
	assert.Equal(t, int64(1), entries)
}

func TestSweep_ZeroBalanceLotGetsNoLedgerEntry(t *testing.T) {
	f := newFixture(t, "TestSweep_ZeroBalanceLotGetsNoLedgerEntry", 200)

	lot := f.mintLot(t, 40, 24*time.Hour)
	f.drainLot(t, lot.ID)
	f.clock.Advance(48 * time.Hour)

	report, err := f.svc.Sweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.LotsExpired)
	assert.Equal(t, int64(0), report.TotalMinutesExpired)

	var entries int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(*) FROM credit_ledger_entries WHERE reason_code = 'expiry'`,
	).Scan(&entries).Error)
	assert.Equal(t, int64(0), entries)

	// the status flip is still audited
	var audits int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(*) FROM audit_events WHERE action = 'lot.expired'`,
	).Scan(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestSweep_DrainsBacklogAcrossBatches(t *testing.T) {
	f := newFixture(t, "TestSweep_DrainsBacklogAcrossBatches", 2)

	for i := 0; i < 5; i++ {
		f.mintLot(t, 10, 24*time.Hour)
	}
	f.clock.Advance(48 * time.Hour)

	report, err := f.svc.Sweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.LotsExpired)
	assert.Equal(t, int64(50), report.TotalMinutesExpired)

	var active int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(*) FROM credit_lots WHERE status != 'expired'`,
	).Scan(&active).Error)
	assert.Equal(t, int64(0), active)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/craftwork-labs/minutemarket/internal/audit/repository"
	auditservice "github.com/craftwork-labs/minutemarket/internal/audit/service"
	"github.com/craftwork-labs/minutemarket/internal/balance/domain"
	"github.com/craftwork-labs/minutemarket/internal/balance/repository"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/config"
	consumptiondomain "github.com/craftwork-labs/minutemarket/internal/consumption/domain"
	consumptionrepository "github.com/craftwork-labs/minutemarket/internal/consumption/repository"
	consumptionservice "github.com/craftwork-labs/minutemarket/internal/consumption/service"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	lotrepository "github.com/craftwork-labs/minutemarket/internal/creditlot/repository"
	lotservice "github.com/craftwork-labs/minutemarket/internal/creditlot/service"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	ledgerservice "github.com/craftwork-labs/minutemarket/internal/ledger/service"
	sweeperdomain "github.com/craftwork-labs/minutemarket/internal/sweeper/domain"
	sweeperservice "github.com/craftwork-labs/minutemarket/internal/sweeper/service"
	"github.com/craftwork-labs/minutemarket/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db             *gorm.DB
	node           *snowflake.Node
	clock          *clock.FakeClock
	lotSvc         lotdomain.Service
	consumptionSvc consumptiondomain.Service
	sweeperSvc     sweeperdomain.Service
	svc            domain.Service
	orgID          snowflake.ID
	providerID     snowflake.ID
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()

	db := testsupport.OpenTestDB(t, name)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{ExpiringSoonDays: 30, SweepBatchSize: 200}

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
	consumptionSvc := consumptionservice.NewService(consumptionservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      consumptionrepository.NewRepository(db),
		LotRepo:   lotRepo,
		LedgerSvc: ledgerSvc,
		AuditSvc:  auditSvc,
		Clock:     fc,
	})
	sweeperSvc := sweeperservice.NewService(sweeperservice.Params{
		DB:        db,
		Log:       log,
		Config:    cfg,
		LotRepo:   lotRepo,
		LedgerSvc: ledgerSvc,
		AuditSvc:  auditSvc,
		Clock:     fc,
	})
	svc := NewService(Params{
		DB:     db,
		Log:    log,
		Config: cfg,
		Repo:   repository.NewRepository(db),
		Clock:  fc,
	})

	return &fixture{
		db:             db,
		node:           node,
		clock:          fc,
		lotSvc:         lotSvc,
		consumptionSvc: consumptionSvc,
		sweeperSvc:     sweeperSvc,
		svc:            svc,
		orgID:          node.Generate(),
		providerID:     node.Generate(),
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

func (f *fixture) consume(t *testing.T, minutes int64) {
	t.Helper()
	_, err := f.consumptionSvc.Consume(context.Background(), consumptiondomain.ConsumeRequest{
		OrgID:      f.orgID,
		ProviderID: f.providerID,
		Minutes:    minutes,
		Actor:      ledgerdomain.SystemActor(),
	})
	require.NoError(t, err)
}

func TestGetBalance_SplitsAvailableAndExpiringSoon(t *testing.T) {
	f := newFixture(t, "TestGetBalance_SplitsAvailableAndExpiringSoon")

	f.mintLot(t, 120, 5*24*time.Hour)
	f.mintLot(t, 60, 30*24*time.Hour)
	f.consume(t, 100)

	balances, err := f.svc.GetBalance(context.Background(), domain.GetBalanceRequest{
		OrgID:       f.orgID,
		HorizonDays: 7,
	})
	require.NoError(t, err)
	require.Len(t, balances, 1)

	b := balances[0]
	assert.Equal(t, f.providerID, b.ProviderID)
	assert.Equal(t, int64(180), b.TotalMinutes)
	assert.Equal(t, int64(100), b.UsedMinutes)
	assert.Equal(t, int64(80), b.AvailableMinutes)
	// only the 20 minutes left on the 5-day lot fall inside the 7-day
	// horizon
	assert.Equal(t, int64(20), b.ExpiringSoonMinutes)
}

func TestGetBalance_ExpiredMinutesAreNotUsed(t *testing.T) {
	f := newFixture(t, "TestGetBalance_ExpiredMinutesAreNotUsed")

	f.mintLot(t, 120, 24*time.Hour)
	f.mintLot(t, 60, 30*24*time.Hour)
	f.consume(t, 50)

	f.clock.Advance(48 * time.Hour)
	_, err := f.sweeperSvc.Sweep(context.Background(), f.clock.Now())
	require.NoError(t, err)

	balances, err := f.svc.GetBalance(context.Background(), domain.GetBalanceRequest{OrgID: f.orgID})
	require.NoError(t, err)
	require.Len(t, balances, 1)

	b := balances[0]
	assert.Equal(t, int64(180), b.TotalMinutes)
	// 50 consumed; the 70 forfeited at expiry are neither used nor
	// available
	assert.Equal(t, int64(50), b.UsedMinutes)
	assert.Equal(t, int64(60), b.AvailableMinutes)
}

func TestGetBalance_ExhaustedLotContributesNothingAvailable(t *testing.T) {
	f := newFixture(t, "TestGetBalance_ExhaustedLotContributesNothingAvailable")

	f.mintLot(t, 50, 10*24*time.Hour)
	f.consume(t, 50)

	balances, err := f.svc.GetBalance(context.Background(), domain.GetBalanceRequest{OrgID: f.orgID})
	require.NoError(t, err)
	require.Len(t, balances, 1)

	b := balances[0]
	assert.Equal(t, int64(50), b.TotalMinutes)
	assert.Equal(t, int64(50), b.UsedMinutes)
	assert.Equal(t, int64(0), b.AvailableMinutes)
	assert.Equal(t, int64(0), b.ExpiringSoonMinutes)
}

func TestGetBalance_RequiresOrganization(t *testing.T) {
	f := newFixture(t, "TestGetBalance_RequiresOrganization")

	_, err := f.svc.GetBalance(context.Background(), domain.GetBalanceRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	sweeperservice "github.com/craftwork-labs/minutemarket/internal/sweeper/service"
	"github.com/craftwork-labs/minutemarket/internal/testsupport"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// The sweep route must cut off by the injected clock, not wall time:
// the fixture clock sits decades ahead so a wall-clock sweep would see
// nothing expired.
func TestTriggerSweep_UsesInjectedClock(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testsupport.OpenTestDB(t, "TestTriggerSweep_UsesInjectedClock")
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2100, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{SweepBatchSize: 200}

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
	sweeperSvc := sweeperservice.NewService(sweeperservice.Params{
		DB:        db,
		Log:       log,
		Config:    cfg,
		LotRepo:   lotRepo,
		LedgerSvc: ledgerSvc,
		AuditSvc:  auditSvc,
		Clock:     fc,
	})

	engine := NewEngine(log, nil)
	NewServer(ServerParams{
		Gin:        engine,
		Cfg:        cfg,
		GenID:      node,
		SweeperSvc: sweeperSvc,
		LedgerSvc:  ledgerSvc,
		AuditSvc:   auditSvc,
		Clock:      fc,
	})

	orderID := node.Generate()
	_, err = lotSvc.MintLot(context.Background(), lotdomain.MintRequest{
		OrgID:      node.Generate(),
		ProviderID: node.Generate(),
		OrderID:    &orderID,
		Minutes:    40,
		ExpiresAt:  fc.Now().Add(24 * time.Hour),
		Actor:      ledgerdomain.SystemActor(),
	})
	require.NoError(t, err)
	fc.Advance(48 * time.Hour)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sweep", nil)
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Report struct {
			LotsExpired         int64 `json:"lots_expired"`
			TotalMinutesExpired int64 `json:"total_minutes_expired"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Report.LotsExpired)
	assert.Equal(t, int64(40), body.Report.TotalMinutesExpired)
}

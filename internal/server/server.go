package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/audit"
	auditdomain "github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"github.com/craftwork-labs/minutemarket/internal/balance"
	balancedomain "github.com/craftwork-labs/minutemarket/internal/balance/domain"
	"github.com/craftwork-labs/minutemarket/internal/bundle"
	bundledomain "github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	"github.com/craftwork-labs/minutemarket/internal/config"
	"github.com/craftwork-labs/minutemarket/internal/consumption"
	consumptiondomain "github.com/craftwork-labs/minutemarket/internal/consumption/domain"
	"github.com/craftwork-labs/minutemarket/internal/creditlot"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/ledger"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	obsmiddleware "github.com/craftwork-labs/minutemarket/internal/observability/logger"
	obsmetrics "github.com/craftwork-labs/minutemarket/internal/observability/metrics"
	"github.com/craftwork-labs/minutemarket/internal/order"
	orderdomain "github.com/craftwork-labs/minutemarket/internal/order/domain"
	"github.com/craftwork-labs/minutemarket/internal/organization"
	orgdomain "github.com/craftwork-labs/minutemarket/internal/organization/domain"
	"github.com/craftwork-labs/minutemarket/internal/payment"
	paymentdomain "github.com/craftwork-labs/minutemarket/internal/payment/domain"
	"github.com/craftwork-labs/minutemarket/internal/provider"
	providerdomain "github.com/craftwork-labs/minutemarket/internal/provider/domain"
	"github.com/craftwork-labs/minutemarket/internal/sweeper"
	sweeperdomain "github.com/craftwork-labs/minutemarket/internal/sweeper/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	obsmetrics.Module,
	audit.Module,
	ledger.Module,
	organization.Module,
	provider.Module,
	bundle.Module,
	order.Module,
	payment.Module,
	creditlot.Module,
	consumption.Module,
	balance.Module,
	sweeper.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	}

	return r
}

func registerGin(log *zap.Logger, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(log, m)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	genID           *snowflake.Node
	organizationSvc orgdomain.Service
	providerSvc     providerdomain.Service
	bundleSvc       bundledomain.Service
	orderSvc        orderdomain.Service
	paymentSvc      paymentdomain.Service
	lotSvc          lotdomain.Service
	consumptionSvc  consumptiondomain.Service
	balanceSvc      balancedomain.Service
	sweeperSvc      sweeperdomain.Service
	auditSvc        auditdomain.Service
	ledgerSvc       ledgerdomain.Service
	clock           clock.Clock
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	GenID           *snowflake.Node
	OrganizationSvc orgdomain.Service
	ProviderSvc     providerdomain.Service
	BundleSvc       bundledomain.Service
	OrderSvc        orderdomain.Service
	PaymentSvc      paymentdomain.Service
	LotSvc          lotdomain.Service
	ConsumptionSvc  consumptiondomain.Service
	BalanceSvc      balancedomain.Service
	SweeperSvc      sweeperdomain.Service
	AuditSvc        auditdomain.Service
	LedgerSvc       ledgerdomain.Service
	Clock           clock.Clock
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		genID:           p.GenID,
		organizationSvc: p.OrganizationSvc,
		providerSvc:     p.ProviderSvc,
		bundleSvc:       p.BundleSvc,
		orderSvc:        p.OrderSvc,
		paymentSvc:      p.PaymentSvc,
		lotSvc:          p.LotSvc,
		consumptionSvc:  p.ConsumptionSvc,
		balanceSvc:      p.BalanceSvc,
		sweeperSvc:      p.SweeperSvc,
		auditSvc:        p.AuditSvc,
		ledgerSvc:       p.LedgerSvc,
		clock:           p.Clock,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.POST("/organizations", s.CreateOrg)
	api.GET("/organizations", s.ListOrgs)
	api.GET("/organizations/:id", s.GetOrg)
	api.GET("/organizations/:id/balance", s.GetBalance)
	api.GET("/organizations/:id/orders", s.ListOrgOrders)

	api.POST("/providers", s.CreateProvider)
	api.GET("/providers", s.ListProviders)
	api.GET("/providers/:id", s.GetProvider)
	api.GET("/providers/:id/bundles", s.ListProviderBundles)

	api.POST("/bundles", s.CreateBundle)
	api.GET("/bundles/:id", s.GetBundle)
	api.PUT("/bundles/:id", s.ReplaceBundle)
	api.DELETE("/bundles/:id", s.DeactivateBundle)

	api.POST("/orders", s.CreateCheckout)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/refund", s.RefundOrder)

	api.POST("/payments/webhook", s.PaymentWebhook)

	api.GET("/lots/:id", s.GetLot)
	api.POST("/lots/:id/adjust", s.AdjustLot)
	api.POST("/adjustments", s.CreateAdjustment)

	api.POST("/work-logs", s.CreateWorkLog)
	api.POST("/work-logs/:id/reverse", s.ReverseWorkLog)

	api.POST("/sweep", s.TriggerSweep)

	api.GET("/audit-events", s.ListAuditEvents)

	api.GET("/ledger-entries", s.ListLedgerEntries)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bundledomain "github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	bundlerepository "github.com/craftwork-labs/minutemarket/internal/bundle/repository"
	bundleservice "github.com/craftwork-labs/minutemarket/internal/bundle/service"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/order/domain"
	"github.com/craftwork-labs/minutemarket/internal/order/repository"
	orgdomain "github.com/craftwork-labs/minutemarket/internal/organization/domain"
	orgrepository "github.com/craftwork-labs/minutemarket/internal/organization/repository"
	orgservice "github.com/craftwork-labs/minutemarket/internal/organization/service"
	"github.com/craftwork-labs/minutemarket/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	svc    domain.Service
	org    *orgdomain.Organization
	bundle *bundledomain.CreditBundle
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()

	db := testsupport.OpenTestDB(t, name)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	orgSvc := orgservice.NewService(orgservice.Params{
		Log:   log,
		GenID: node,
		Repo:  orgrepository.NewRepository(db),
	})
	bundleSvc := bundleservice.NewService(bundleservice.Params{
		Log:   log,
		GenID: node,
		Repo:  bundlerepository.NewRepository(db),
	})
	svc := NewService(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      repository.NewRepository(db),
		OrgSvc:    orgSvc,
		BundleSvc: bundleSvc,
		Clock:     fc,
	})

	org, err := orgSvc.Create(context.Background(), orgdomain.CreateRequest{Name: "Acme Studios"})
	require.NoError(t, err)
	bundle, err := bundleSvc.Create(context.Background(), bundledomain.CreateRequest{
		ProviderID:  node.Generate().String(),
		Name:        "Starter 10h",
		Hours:       10,
		BillingType: string(bundledomain.BillingTypeOneTime),
		PriceCents:  50000,
		Currency:    "usd",
	})
	require.NoError(t, err)

	return &fixture{db: db, node: node, clock: fc, svc: svc, org: org, bundle: bundle}
}

func (f *fixture) checkout(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.svc.CreateCheckout(context.Background(), domain.CreateCheckoutRequest{
		OrgID:    f.org.ID.String(),
		BundleID: f.bundle.ID.String(),
	})
	require.NoError(t, err)
	return order
}

func TestCreateCheckout_SnapshotsBundlePricing(t *testing.T) {
	f := newFixture(t, "TestCreateCheckout_SnapshotsBundlePricing")

	order := f.checkout(t)
	assert.Equal(t, f.org.ID, order.OrgID)
	assert.Equal(t, f.bundle.ID, order.BundleID)
	assert.Equal(t, f.bundle.ProviderID, order.ProviderID)
	assert.Equal(t, int64(50000), order.AmountCents)
	assert.Equal(t, "usd", order.Currency)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.ExternalSessionID)
	assert.Nil(t, order.PaidAt)
}

func TestCreateCheckout_RejectsInactiveBundle(t *testing.T) {
	f := newFixture(t, "TestCreateCheckout_RejectsInactiveBundle")

	bundleSvc := bundleservice.NewService(bundleservice.Params{
		Log:   zap.NewNop(),
		GenID: f.node,
		Repo:  bundlerepository.NewRepository(f.db),
	})
	require.NoError(t, bundleSvc.Deactivate(context.Background(), f.bundle.ID.String()))

	_, err := f.svc.CreateCheckout(context.Background(), domain.CreateCheckoutRequest{
		OrgID:    f.org.ID.String(),
		BundleID: f.bundle.ID.String(),
	})
	assert.ErrorIs(t, err, bundledomain.ErrInactive)
}

func TestMarkPaid_SecondDeliveryDoesNotTransition(t *testing.T) {
	f := newFixture(t, "TestMarkPaid_SecondDeliveryDoesNotTransition")

	order := f.checkout(t)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		paid, transitioned, err := f.svc.MarkPaid(context.Background(), tx, order.ExternalSessionID)
		require.NoError(t, err)
		assert.True(t, transitioned)
		assert.Equal(t, domain.OrderStatusPaid, paid.Status)
		require.NotNil(t, paid.PaidAt)
		return nil
	})
	require.NoError(t, err)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		paid, transitioned, err := f.svc.MarkPaid(context.Background(), tx, order.ExternalSessionID)
		require.NoError(t, err)
		assert.False(t, transitioned)
		assert.Equal(t, domain.OrderStatusPaid, paid.Status)
		return nil
	})
	require.NoError(t, err)
}

func TestMarkPaid_CancelledOrderRejected(t *testing.T) {
	f := newFixture(t, "TestMarkPaid_CancelledOrderRejected")

	order := f.checkout(t)
	_, err := f.svc.Cancel(context.Background(), order.ID.String())
	require.NoError(t, err)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := f.svc.MarkPaid(context.Background(), tx, order.ExternalSessionID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestCancel_OnlyPendingOrders(t *testing.T) {
	f := newFixture(t, "TestCancel_OnlyPendingOrders")

	order := f.checkout(t)
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := f.svc.MarkPaid(context.Background(), tx, order.ExternalSessionID)
		return err
	}))

	_, err := f.svc.Cancel(context.Background(), order.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestMarkRefunded_OnlyPaidOrders(t *testing.T) {
	f := newFixture(t, "TestMarkRefunded_OnlyPaidOrders")

	order := f.checkout(t)
	_, err := f.svc.MarkRefunded(context.Background(), order.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPaid)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := f.svc.MarkPaid(context.Background(), tx, order.ExternalSessionID)
		return err
	}))

	refunded, err := f.svc.MarkRefunded(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, refunded.Status)
}

func TestListByOrganization_NewestFirst(t *testing.T) {
	f := newFixture(t, "TestListByOrganization_NewestFirst")

	first := f.checkout(t)
	second := f.checkout(t)

	orders, err := f.svc.ListByOrganization(context.Background(), f.org.ID.String())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

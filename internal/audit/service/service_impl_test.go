package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"github.com/craftwork-labs/minutemarket/internal/audit/repository"
	"github.com/craftwork-labs/minutemarket/internal/testsupport"
	"github.com/craftwork-labs/minutemarket/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	svc   auditdomain.Service
	orgID snowflake.ID
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()

	db := testsupport.OpenTestDB(t, name)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return &fixture{db: db, node: node, svc: svc, orgID: node.Generate()}
}

func (f *fixture) insertEvent(t *testing.T, action string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`INSERT INTO audit_events (
			id, org_id, entity_type, entity_id, action, actor_type, created_at
		) VALUES (?, ?, 'credit_lot', '1', ?, 'system', ?)`,
		f.node.Generate(), f.orgID, action, createdAt,
	).Error)
}

func TestWrite_MarshalsSnapshots(t *testing.T) {
	f := newFixture(t, "TestWrite_MarshalsSnapshots")

	err := f.svc.Write(context.Background(), nil, auditdomain.Record{
		OrgID:      &f.orgID,
		EntityType: "credit_lot",
		EntityID:   "42",
		Action:     "lot.adjusted",
		ActorType:  "user",
		Before:     map[string]any{"minutes_remaining": 120},
		After:      map[string]any{"minutes_remaining": 90},
	})
	require.NoError(t, err)

	var before, after string
	require.NoError(t, f.db.Raw(
		`SELECT before_json, after_json FROM audit_events WHERE action = 'lot.adjusted'`,
	).Row().Scan(&before, &after))
	assert.JSONEq(t, `{"minutes_remaining": 120}`, before)
	assert.JSONEq(t, `{"minutes_remaining": 90}`, after)
}

func TestWrite_RejectsEmptyEntity(t *testing.T) {
	f := newFixture(t, "TestWrite_RejectsEmptyEntity")

	err := f.svc.Write(context.Background(), nil, auditdomain.Record{Action: "lot.minted"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidEntity)

	err = f.svc.Write(context.Background(), nil, auditdomain.Record{
		EntityType: "credit_lot",
		EntityID:   "1",
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestList_CursorWalksNewestFirst(t *testing.T) {
	f := newFixture(t, "TestList_CursorWalksNewestFirst")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.insertEvent(t, "lot.minted", base.Add(time.Duration(i)*time.Minute))
	}

	resp, err := f.svc.List(context.Background(), auditdomain.ListRequest{OrgID: f.orgID})
	require.NoError(t, err)
	require.Len(t, resp.Events, 5)
	assert.False(t, resp.HasMore)
	assert.True(t, resp.Events[0].CreatedAt.After(resp.Events[4].CreatedAt))

	first, err := f.svc.List(context.Background(), auditdomain.ListRequest{
		OrgID:      f.orgID,
		Pagination: pagination.Pagination{PageSize: 3},
	})
	require.NoError(t, err)
	require.Len(t, first.Events, 3)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	rest, err := f.svc.List(context.Background(), auditdomain.ListRequest{
		OrgID:      f.orgID,
		Pagination: pagination.Pagination{PageToken: first.NextPageToken, PageSize: 3},
	})
	require.NoError(t, err)
	require.Len(t, rest.Events, 2)
	assert.False(t, rest.HasMore)

	seen := map[snowflake.ID]bool{}
	for _, e := range append(first.Events, rest.Events...) {
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}

func TestList_FiltersByActionAndWindow(t *testing.T) {
	f := newFixture(t, "TestList_FiltersByActionAndWindow")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.insertEvent(t, "lot.minted", base)
	f.insertEvent(t, "lot.expired", base.Add(time.Hour))
	f.insertEvent(t, "lot.expired", base.Add(3*time.Hour))

	resp, err := f.svc.List(context.Background(), auditdomain.ListRequest{
		OrgID:  f.orgID,
		Action: "lot.expired",
	})
	require.NoError(t, err)
	assert.Len(t, resp.Events, 2)

	start := base.Add(30 * time.Minute)
	end := base.Add(2 * time.Hour)
	resp, err = f.svc.List(context.Background(), auditdomain.ListRequest{
		OrgID:   f.orgID,
		StartAt: &start,
		EndAt:   &end,
	})
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "lot.expired", resp.Events[0].Action)
}

func TestList_BadInputs(t *testing.T) {
	f := newFixture(t, "TestList_BadInputs")

	_, err := f.svc.List(context.Background(), auditdomain.ListRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidOrganization)

	_, err = f.svc.List(context.Background(), auditdomain.ListRequest{
		OrgID:      f.orgID,
		Pagination: pagination.Pagination{PageToken: "not-a-token", PageSize: 10},
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err = f.svc.List(context.Background(), auditdomain.ListRequest{
		OrgID:   f.orgID,
		StartAt: &start,
		EndAt:   &end,
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

// Package testsupport opens shared in-memory sqlite databases with the
// ledger schema for service tests.
package testsupport

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE organizations (
		id INTEGER PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE service_providers (
		id INTEGER PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE credit_bundles (
		id INTEGER PRIMARY KEY,
		provider_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		hours INTEGER NOT NULL,
		billing_type TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		external_price_ref TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deactivated_at DATETIME,
		superseded_by_id INTEGER
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		provider_id INTEGER NOT NULL,
		bundle_id INTEGER NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		external_session_id TEXT NOT NULL UNIQUE,
		paid_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE credit_lots (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		provider_id INTEGER NOT NULL,
		order_id INTEGER UNIQUE,
		minutes_purchased INTEGER NOT NULL,
		minutes_remaining INTEGER NOT NULL CHECK (minutes_remaining >= 0),
		status TEXT NOT NULL,
		purchased_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE credit_ledger_entries (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		provider_id INTEGER NOT NULL,
		entry_type TEXT NOT NULL,
		reason_code TEXT NOT NULL,
		minutes_delta INTEGER NOT NULL CHECK (minutes_delta > 0),
		actor_type TEXT NOT NULL,
		actor_user_id INTEGER,
		order_id INTEGER,
		lot_id INTEGER,
		work_log_id INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE work_logs (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		provider_id INTEGER NOT NULL,
		minutes_spent INTEGER NOT NULL,
		category TEXT NOT NULL,
		performed_at DATETIME NOT NULL,
		performed_by INTEGER NOT NULL,
		is_billable BOOLEAN NOT NULL,
		reversed_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE lot_consumptions (
		id INTEGER PRIMARY KEY,
		credit_lot_id INTEGER NOT NULL,
		work_log_id INTEGER,
		adjustment_ledger_entry_id INTEGER,
		minutes_consumed INTEGER NOT NULL CHECK (minutes_consumed > 0),
		reversed_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE audit_events (
		id INTEGER PRIMARY KEY,
		org_id INTEGER,
		provider_id INTEGER,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		action TEXT NOT NULL,
		actor_type TEXT NOT NULL,
		actor_user_id INTEGER,
		before_json TEXT,
		after_json TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// OpenTestDB opens a named shared in-memory database and creates the
// full schema. The single connection plus busy timeout keeps
// concurrent-transaction tests from tripping over sqlite's writer lock.
func OpenTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	conn.Exec("PRAGMA busy_timeout = 5000")
	conn.Exec("PRAGMA journal_mode = WAL")

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

package db

import "gorm.io/gorm"

// LockClause returns the row-locking suffix for SELECT ... FOR UPDATE
// reads. SQLite has no row locks; its single-writer transaction model
// already serializes decrements, so the suffix is dropped there.
func LockClause(tx *gorm.DB) string {
	if tx == nil || tx.Dialector == nil {
		return ""
	}
	switch tx.Dialector.Name() {
	case "sqlite", "sqlite3":
		return ""
	default:
		return " FOR UPDATE"
	}
}

// SkipLockedClause is LockClause plus SKIP LOCKED, used by batch jobs
// that claim rows without queueing behind other workers.
func SkipLockedClause(tx *gorm.DB) string {
	if LockClause(tx) == "" {
		return ""
	}
	return " FOR UPDATE SKIP LOCKED"
}

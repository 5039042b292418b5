package migration

import (
	"github.com/craftwork-labs/minutemarket/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// sqlite is the in-memory test dialect; its schemas are created
		// by the test harness, not migrations
		if cfg.DBType == "sqlite" || cfg.DBType == "sqlite3" {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertWorkLog(ctx context.Context, tx *gorm.DB, workLog WorkLog) error
	GetWorkLog(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*WorkLog, error)
	MarkWorkLogReversed(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time) error
	InsertConsumption(ctx context.Context, tx *gorm.DB, row LotConsumption) error
	// ListActiveByWorkLog returns the not-yet-reversed consumption trail
	// of one work log.
	ListActiveByWorkLog(ctx context.Context, tx *gorm.DB, workLogID snowflake.ID) ([]LotConsumption, error)
	MarkConsumptionsReversed(ctx context.Context, tx *gorm.DB, workLogID snowflake.ID, at time.Time) error
}

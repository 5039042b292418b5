package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/config"
	"github.com/craftwork-labs/minutemarket/internal/logger"
	"github.com/craftwork-labs/minutemarket/internal/migration"
	"github.com/craftwork-labs/minutemarket/internal/scheduler"
	"github.com/craftwork-labs/minutemarket/internal/server"
	"github.com/craftwork-labs/minutemarket/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

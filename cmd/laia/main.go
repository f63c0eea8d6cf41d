package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/laiahq/platform/internal/clock"
	"github.com/laiahq/platform/internal/logger"
	"github.com/laiahq/platform/internal/migration"
	"github.com/laiahq/platform/internal/server"
	"github.com/laiahq/platform/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(RegisterSnowflake),
		logger.Module,
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
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

package main

import (
	"github.com/acknowledge-dev/acknowledge/internal/clock"
	"github.com/acknowledge-dev/acknowledge/internal/config"
	"github.com/acknowledge-dev/acknowledge/internal/migration"
	"github.com/acknowledge-dev/acknowledge/internal/observability"
	"github.com/acknowledge-dev/acknowledge/internal/server"
	"github.com/acknowledge-dev/acknowledge/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
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

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/observability"
	"github.com/smallbiznis/civicpulse/internal/scheduler"
	"github.com/smallbiznis/civicpulse/internal/server"
	"github.com/smallbiznis/civicpulse/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by the sweeps. No HTTP listener.
		server.DomainModules,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}

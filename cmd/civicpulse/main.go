package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/migration"
	"github.com/smallbiznis/civicpulse/internal/observability"
	"github.com/smallbiznis/civicpulse/internal/scheduler"
	"github.com/smallbiznis/civicpulse/internal/seed"
	"github.com/smallbiznis/civicpulse/internal/server"
	"github.com/smallbiznis/civicpulse/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,

		// HTTP API plus every domain module it serves
		server.Module,

		// Background sweeps share the same domain services
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

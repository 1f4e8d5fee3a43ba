package main

import (
	"github.com/cloudunify/cloudunify/internal/activity"
	"github.com/cloudunify/cloudunify/internal/clock"
	"github.com/cloudunify/cloudunify/internal/config"
	"github.com/cloudunify/cloudunify/internal/ingest"
	"github.com/cloudunify/cloudunify/internal/logger"
	"github.com/cloudunify/cloudunify/internal/migration"
	"github.com/cloudunify/cloudunify/internal/organization"
	"github.com/cloudunify/cloudunify/internal/server"
	"github.com/cloudunify/cloudunify/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		organization.Module,
		ingest.Module,
		activity.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

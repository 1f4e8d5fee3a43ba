package ingest

import (
	"github.com/cloudunify/cloudunify/internal/ingest/repository"
	"github.com/cloudunify/cloudunify/internal/ingest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

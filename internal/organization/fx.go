package organization

import (
	"github.com/cloudunify/cloudunify/internal/organization/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("organization",
	fx.Provide(repository.Provide),
)

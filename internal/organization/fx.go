package organization

import (
	"github.com/acknowledge-dev/acknowledge/internal/organization/repository"
	"github.com/acknowledge-dev/acknowledge/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

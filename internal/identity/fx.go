package identity

import (
	"github.com/acknowledge-dev/acknowledge/internal/identity/repository"
	"github.com/acknowledge-dev/acknowledge/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

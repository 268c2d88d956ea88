package reward

import (
	"github.com/acknowledge-dev/acknowledge/internal/reward/repository"
	"github.com/acknowledge-dev/acknowledge/internal/reward/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reward.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

package migration

import (
	"github.com/acknowledge-dev/acknowledge/internal/config"
	identitydomain "github.com/acknowledge-dev/acknowledge/internal/identity/domain"
	orgdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	rewarddomain "github.com/acknowledge-dev/acknowledge/internal/reward/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(cfg config.Config, conn *gorm.DB) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// Versioned migrations are written for postgres; other drivers are
		// for local development and get the schema from the models.
		return conn.AutoMigrate(
			&orgdomain.Organization{},
			&identitydomain.User{},
			&identitydomain.Account{},
			&rewarddomain.Reward{},
			&rewarddomain.PointLog{},
			&rewarddomain.Action{},
		)
	}),
)

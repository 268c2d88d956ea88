package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByLinearID(ctx context.Context, linearID string) (*Organization, error)
	Create(ctx context.Context, org Organization) error
	UpdateAPIKey(ctx context.Context, id snowflake.ID, apiKey string) error
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAccount(ctx context.Context, provider, providerAccountID string, orgID snowflake.ID) (*Account, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user User) error
	CreateAccount(ctx context.Context, account Account) error
}

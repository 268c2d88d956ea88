// Package domain contains core types for identity resolution.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProviderLinear is the provider constant for accounts bound to Linear users.
const ProviderLinear = "linear"

// User represents a person, possibly linked to accounts across providers.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null;index:ix_users_email" json:"email"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Account is a tenant-scoped identity bound to a remote-system user. Points
// only ever grow through reward settlement.
type Account struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	Provider          string       `gorm:"type:text;not null;uniqueIndex:ux_accounts_provider_org,priority:1" json:"provider"`
	ProviderAccountID string       `gorm:"type:text;not null;uniqueIndex:ux_accounts_provider_org,priority:2;column:provider_account_id" json:"provider_account_id"`
	OrgID             snowflake.ID `gorm:"not null;uniqueIndex:ux_accounts_provider_org,priority:3;column:org_id" json:"org_id"`
	UserID            snowflake.ID `gorm:"not null;index;column:user_id" json:"user_id"`
	Points            int64        `gorm:"not null;default:0" json:"points"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

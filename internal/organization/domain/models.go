// Package domain contains core types for the organization service.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Organization represents one tenant of the Linear workspace.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	LinearID  string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_linear_id;column:linear_id" json:"linear_id"`
	APIKey    *string      `gorm:"type:text;column:api_key" json:"-"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// APIKeyValue returns the configured API key or empty string.
func (o Organization) APIKeyValue() string {
	if o.APIKey == nil {
		return ""
	}
	return strings.TrimSpace(*o.APIKey)
}

// HasAPIKey reports whether outbound Linear calls are possible for this tenant.
func (o Organization) HasAPIKey() bool {
	return o.APIKeyValue() != ""
}

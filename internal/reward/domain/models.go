// Package domain contains core types for reward settlement.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Reward is a pending point grant tied to one tracked issue. Once claimed,
// value, claimed_by and claimed_at are immutable.
type Reward struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID  `gorm:"not null;index;column:org_id" json:"org_id"`
	IssueID       string        `gorm:"type:text;not null;uniqueIndex:ux_rewards_issue_id;column:issue_id" json:"issue_id"`
	AttachmentID  string        `gorm:"type:text;not null;column:attachment_id" json:"attachment_id"`
	TargetStateID string        `gorm:"type:text;not null;column:target_state_id" json:"target_state_id"`
	Value         int64         `gorm:"not null" json:"value"`
	Claimed       bool          `gorm:"not null;default:false" json:"claimed"`
	ClaimedAt     *time.Time    `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	ClaimedBy     *snowflake.ID `gorm:"column:claimed_by" json:"claimed_by,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Reward) TableName() string { return "rewards" }

// PointLog is the append-only ledger entry produced exactly once per
// successful settlement. Never mutated or deleted.
type PointLog struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID `gorm:"not null;index;column:org_id" json:"org_id"`
	AccountID      snowflake.ID `gorm:"not null;index;column:account_id" json:"account_id"`
	RewardID       snowflake.ID `gorm:"not null;column:reward_id" json:"reward_id"`
	PreviousPoints int64        `gorm:"not null;column:previous_points" json:"previous_points"`
	NewPoints      int64        `gorm:"not null;column:new_points" json:"new_points"`
	Difference     int64        `gorm:"not null" json:"difference"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PointLog) TableName() string { return "point_logs" }

type ActionType string

const (
	ActionTypeRewardClaim ActionType = "REWARD_CLAIM"
)

type ActorType string

const (
	ActorTypeHuman  ActorType = "HUMAN"
	ActorTypeSystem ActorType = "SYSTEM"
)

// Action is a write-once activity record.
type Action struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID      `gorm:"not null;index;column:org_id" json:"org_id"`
	RewardID  *snowflake.ID     `gorm:"column:reward_id" json:"reward_id,omitempty"`
	AccountID *snowflake.ID     `gorm:"column:account_id" json:"account_id,omitempty"`
	Type      ActionType        `gorm:"type:text;not null" json:"type"`
	ActorType ActorType         `gorm:"type:text;not null;column:actor_type" json:"actor_type"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Action) TableName() string { return "actions" }

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIssueID(ctx context.Context, issueID string) (*Reward, error)
	// ClaimReward flips the reward to claimed only if it is still unclaimed.
	// Returns false when another delivery already claimed it.
	ClaimReward(ctx context.Context, rewardID, accountID snowflake.ID, at time.Time) (bool, error)
	// AddAccountPoints credits the account atomically and returns the new
	// balance.
	AddAccountPoints(ctx context.Context, accountID snowflake.ID, delta int64, at time.Time) (int64, error)
	CreatePointLog(ctx context.Context, entry PointLog) error
	CreateAction(ctx context.Context, action Action) error
	ListPointLogsByAccount(ctx context.Context, accountID snowflake.ID) ([]PointLog, error)
}

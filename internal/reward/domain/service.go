package domain

import (
	"context"

	"github.com/acknowledge-dev/acknowledge/internal/linear"
	"github.com/bwmarrin/snowflake"
)

// Outcome describes how a classified event was resolved.
type Outcome string

const (
	// OutcomeNoReward means no reward is tracked for the issue.
	OutcomeNoReward Outcome = "no_reward"
	// OutcomeNotEligible means the reward exists but the event does not
	// settle it: already claimed, state mismatch or missing credential.
	OutcomeNotEligible Outcome = "not_eligible"
	// OutcomeClaimed means the reward was settled by this delivery.
	OutcomeClaimed Outcome = "claimed"
)

type Service interface {
	// ProcessIssueEvent runs the claim pipeline for one classified event:
	// reward lookup, identity resolution, settlement, remote notification.
	ProcessIssueEvent(ctx context.Context, event linear.IssueUpdate) (Outcome, error)
	ListPointLogs(ctx context.Context, accountID snowflake.ID) ([]PointLog, error)
}

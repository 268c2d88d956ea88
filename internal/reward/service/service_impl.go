package service

import (
	"context"
	"fmt"

	"github.com/acknowledge-dev/acknowledge/internal/clock"
	identitydomain "github.com/acknowledge-dev/acknowledge/internal/identity/domain"
	"github.com/acknowledge-dev/acknowledge/internal/linear"
	obsmetrics "github.com/acknowledge-dev/acknowledge/internal/observability/metrics"
	orgdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	"github.com/acknowledge-dev/acknowledge/internal/reward/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Resolver identitydomain.Resolver
	Clients  linear.Factory
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	resolver identitydomain.Resolver
	clients  linear.Factory
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reward.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		resolver: p.Resolver,
		clients:  p.Clients,
		metrics:  p.Metrics,
	}
}

func (s *Service) ProcessIssueEvent(ctx context.Context, event linear.IssueUpdate) (domain.Outcome, error) {
	reward, err := s.repo.FindByIssueID(ctx, event.IssueID)
	if err != nil {
		return "", err
	}
	if reward == nil {
		return domain.OutcomeNoReward, nil
	}

	account, org, err := s.resolver.Resolve(ctx, event.OrganizationID, event.AssigneeID)
	if err != nil {
		return "", err
	}

	settled, err := s.settle(ctx, reward, account, org, event.StateID)
	if err != nil {
		return "", err
	}
	if !settled {
		return domain.OutcomeNotEligible, nil
	}

	s.metrics.RecordRewardClaim(ctx, org.LinearID)
	s.notify(ctx, reward, org)

	return domain.OutcomeClaimed, nil
}

// settle performs the eligibility checks and the atomic unit of work. All
// five writes commit together; the conditional claim update re-checks
// claimed = false at commit time, so a replayed or racing delivery loses and
// reports not eligible.
func (s *Service) settle(ctx context.Context, reward *domain.Reward, account *identitydomain.Account, org *orgdomain.Organization, stateID string) (bool, error) {
	if reward.Claimed {
		return false, nil
	}
	if !org.HasAPIKey() {
		// Claim stays pending until the workspace configures a key; the
		// next redelivery after that settles it.
		s.log.Info("reward not settled: organization has no api key",
			zap.String("linear_org_id", org.LinearID),
			zap.String("reward_id", reward.ID.String()),
		)
		return false, nil
	}
	if stateID != reward.TargetStateID {
		return false, nil
	}

	now := s.clock.Now()
	settled := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		claimed, err := repo.ClaimReward(ctx, reward.ID, account.ID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		newPoints, err := repo.AddAccountPoints(ctx, account.ID, reward.Value, now)
		if err != nil {
			return err
		}

		entry := domain.PointLog{
			ID:             s.genID.Generate(),
			OrgID:          org.ID,
			AccountID:      account.ID,
			RewardID:       reward.ID,
			PreviousPoints: newPoints - reward.Value,
			NewPoints:      newPoints,
			Difference:     reward.Value,
			CreatedAt:      now,
		}
		if err := repo.CreatePointLog(ctx, entry); err != nil {
			return err
		}

		action := domain.Action{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			RewardID:  &reward.ID,
			AccountID: &account.ID,
			Type:      domain.ActionTypeRewardClaim,
			ActorType: domain.ActorTypeSystem,
			Metadata:  datatypes.JSONMap{},
			CreatedAt: now,
		}
		if err := repo.CreateAction(ctx, action); err != nil {
			return err
		}

		settled = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("settle reward %s: %w", reward.ID, err)
	}

	return settled, nil
}

// notify publishes the claim to the issue attachment. Runs after the local
// commit and never rolls it back: the points are already paid, a failed
// annotation is a reconciliation gap to resolve out of band.
func (s *Service) notify(ctx context.Context, reward *domain.Reward, org *orgdomain.Organization) {
	update := linear.AttachmentUpdate{
		Title:    linear.AttachmentTitle,
		Subtitle: fmt.Sprintf("%d points (claimed)", reward.Value),
		Metadata: map[string]any{
			"rewardId":      reward.ID.String(),
			"points":        reward.Value,
			"targetStateId": reward.TargetStateID,
			"claimed":       true,
		},
	}

	if err := s.clients(org.APIKeyValue()).UpdateAttachment(ctx, reward.AttachmentID, update); err != nil {
		s.metrics.RecordNotifyError(ctx)
		s.log.Error("attachment update failed after settlement",
			zap.String("reward_id", reward.ID.String()),
			zap.String("attachment_id", reward.AttachmentID),
			zap.Error(err),
		)
	}
}

func (s *Service) ListPointLogs(ctx context.Context, accountID snowflake.ID) ([]domain.PointLog, error) {
	return s.repo.ListPointLogsByAccount(ctx, accountID)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/acknowledge-dev/acknowledge/internal/clock"
	identitydomain "github.com/acknowledge-dev/acknowledge/internal/identity/domain"
	identityrepository "github.com/acknowledge-dev/acknowledge/internal/identity/repository"
	identityservice "github.com/acknowledge-dev/acknowledge/internal/identity/service"
	"github.com/acknowledge-dev/acknowledge/internal/linear"
	orgdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	orgrepository "github.com/acknowledge-dev/acknowledge/internal/organization/repository"
	orgservice "github.com/acknowledge-dev/acknowledge/internal/organization/service"
	"github.com/acknowledge-dev/acknowledge/internal/reward/domain"
	"github.com/acknowledge-dev/acknowledge/internal/reward/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type attachmentCall struct {
	attachmentID string
	update       linear.AttachmentUpdate
}

type fakeLinearAPI struct {
	profile     *linear.Profile
	updateErr   error
	userCalls   int
	attachments []attachmentCall
}

func (f *fakeLinearAPI) User(ctx context.Context, id string) (*linear.Profile, error) {
	f.userCalls++
	if f.profile == nil {
		return nil, linear.ErrUserNotFound
	}
	return f.profile, nil
}

func (f *fakeLinearAPI) UpdateAttachment(ctx context.Context, attachmentID string, update linear.AttachmentUpdate) error {
	f.attachments = append(f.attachments, attachmentCall{attachmentID: attachmentID, update: update})
	return f.updateErr
}

type pipelineFixture struct {
	conn     *gorm.DB
	svc      domain.Service
	orgs     orgdomain.Service
	resolver identitydomain.Resolver
	node     *snowflake.Node
	clock    *clock.FakeClock
	api      *fakeLinearAPI
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, conn.AutoMigrate(
		&orgdomain.Organization{},
		&identitydomain.User{},
		&identitydomain.Account{},
		&domain.Reward{},
		&domain.PointLog{},
		&domain.Action{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	f := &pipelineFixture{
		conn:  conn,
		node:  node,
		clock: clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		api: &fakeLinearAPI{
			profile: &linear.Profile{ID: "user_9", Name: "Ada Lovelace", Email: "ada@example.com"},
		},
	}
	factory := func(apiKey string) linear.API { return f.api }

	log := zap.NewNop()
	f.orgs = orgservice.NewService(orgrepository.NewRepository(conn), node, log)
	f.resolver = identityservice.NewService(conn, identityrepository.NewRepository(conn), f.orgs, factory, node, log)

	f.svc = NewService(Params{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    f.clock,
		Repo:     repository.NewRepository(conn),
		Resolver: f.resolver,
		Clients:  factory,
	})
	return f
}

func (f *pipelineFixture) seedOrg(t *testing.T, linearID, apiKey string) *orgdomain.Organization {
	t.Helper()
	org, err := f.orgs.SetAPIKey(context.Background(), linearID, apiKey)
	assert.NoError(t, err)
	return org
}

func (f *pipelineFixture) seedReward(t *testing.T, orgID snowflake.ID, issueID, targetStateID string, value int64) domain.Reward {
	t.Helper()
	reward := domain.Reward{
		ID:            f.node.Generate(),
		OrgID:         orgID,
		IssueID:       issueID,
		AttachmentID:  "att_" + issueID,
		TargetStateID: targetStateID,
		Value:         value,
	}
	assert.NoError(t, f.conn.Create(&reward).Error)
	return reward
}

func (f *pipelineFixture) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	assert.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func issueEvent(orgLinearID, issueID, stateID string) linear.IssueUpdate {
	return linear.IssueUpdate{
		OrganizationID:  orgLinearID,
		IssueID:         issueID,
		AssigneeID:      "user_9",
		StateID:         stateID,
		PreviousStateID: "todo",
	}
}

func TestProcessIssueEvent_SettlesClaim(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, "org_1", "lin_api_123")
	reward := f.seedReward(t, org.ID, "iss_1", "done", 50)

	outcome, err := f.svc.ProcessIssueEvent(ctx, issueEvent("org_1", "iss_1", "done"))
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeClaimed, outcome)

	var settled domain.Reward
	assert.NoError(t, f.conn.First(&settled, "id = ?", reward.ID).Error)
	assert.True(t, settled.Claimed)
	assert.NotNil(t, settled.ClaimedBy)
	assert.NotNil(t, settled.ClaimedAt)
	assert.True(t, settled.ClaimedAt.Equal(f.clock.Now()))

	var account identitydomain.Account
	assert.NoError(t, f.conn.First(&account, "id = ?", *settled.ClaimedBy).Error)
	assert.EqualValues(t, 50, account.Points)

	var logs []domain.PointLog
	assert.NoError(t, f.conn.Find(&logs).Error)
	assert.Len(t, logs, 1)
	assert.Equal(t, reward.ID, logs[0].RewardID)
	assert.EqualValues(t, 0, logs[0].PreviousPoints)
	assert.EqualValues(t, 50, logs[0].NewPoints)
	assert.EqualValues(t, 50, logs[0].Difference)

	var actions []domain.Action
	assert.NoError(t, f.conn.Find(&actions).Error)
	assert.Len(t, actions, 1)
	assert.Equal(t, domain.ActionTypeRewardClaim, actions[0].Type)
	assert.Equal(t, domain.ActorTypeSystem, actions[0].ActorType)

	assert.Len(t, f.api.attachments, 1)
	call := f.api.attachments[0]
	assert.Equal(t, reward.AttachmentID, call.attachmentID)
	assert.Equal(t, linear.AttachmentTitle, call.update.Title)
	assert.Equal(t, "50 points (claimed)", call.update.Subtitle)
	assert.Equal(t, true, call.update.Metadata["claimed"])
}

func TestProcessIssueEvent_ReplayIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, "org_1", "lin_api_123")
	f.seedReward(t, org.ID, "iss_1", "done", 50)

	event := issueEvent("org_1", "iss_1", "done")
	outcome, err := f.svc.ProcessIssueEvent(ctx, event)
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeClaimed, outcome)

	for i := 0; i < 3; i++ {
		outcome, err = f.svc.ProcessIssueEvent(ctx, event)
		assert.NoError(t, err)
		assert.Equal(t, domain.OutcomeNotEligible, outcome)
	}

	var account identitydomain.Account
	assert.NoError(t, f.conn.First(&account).Error)
	assert.EqualValues(t, 50, account.Points, "replays never credit twice")
	assert.EqualValues(t, 1, f.countRows(t, &domain.PointLog{}))
	assert.EqualValues(t, 1, f.countRows(t, &domain.Action{}))
	assert.Len(t, f.api.attachments, 1)
}

func TestProcessIssueEvent_NoRewardTracked(t *testing.T) {
	f := newPipelineFixture(t)

	outcome, err := f.svc.ProcessIssueEvent(context.Background(), issueEvent("org_1", "iss_unknown", "done"))
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoReward, outcome)
	assert.EqualValues(t, 0, f.countRows(t, &orgdomain.Organization{}), "lookup miss leaves no writes behind")
}

func TestProcessIssueEvent_StateMismatch(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, "org_1", "lin_api_123")
	reward := f.seedReward(t, org.ID, "iss_1", "done", 50)

	outcome, err := f.svc.ProcessIssueEvent(ctx, issueEvent("org_1", "iss_1", "in_review"))
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotEligible, outcome)

	var unchanged domain.Reward
	assert.NoError(t, f.conn.First(&unchanged, "id = ?", reward.ID).Error)
	assert.False(t, unchanged.Claimed)
	assert.EqualValues(t, 0, f.countRows(t, &domain.PointLog{}))
	assert.Empty(t, f.api.attachments)
}

func TestProcessIssueEvent_MissingCredentialFailsResolution(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	org, err := f.orgs.EnsureByLinearID(ctx, "org_1")
	assert.NoError(t, err)
	f.seedReward(t, org.ID, "iss_1", "done", 50)

	_, err = f.svc.ProcessIssueEvent(ctx, issueEvent("org_1", "iss_1", "done"))
	assert.ErrorIs(t, err, identitydomain.ErrMissingCredential)
	assert.EqualValues(t, 0, f.countRows(t, &domain.PointLog{}))
}

func TestProcessIssueEvent_KnownAccountWithoutKeyStaysPending(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	// The account was provisioned while a key existed; the key was removed
	// afterwards, so the claim waits for the next redelivery.
	org := f.seedOrg(t, "org_1", "lin_api_123")
	f.seedReward(t, org.ID, "iss_1", "done", 50)
	_, _, err := f.resolver.Resolve(ctx, "org_1", "user_9")
	assert.NoError(t, err)
	assert.NoError(t, f.conn.Model(&orgdomain.Organization{}).
		Where("id = ?", org.ID).
		Update("api_key", nil).Error)

	outcome, err := f.svc.ProcessIssueEvent(ctx, issueEvent("org_1", "iss_1", "done"))
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotEligible, outcome)
	assert.EqualValues(t, 0, f.countRows(t, &domain.PointLog{}))
}

func TestProcessIssueEvent_NotifyFailureKeepsSettlement(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, "org_1", "lin_api_123")
	reward := f.seedReward(t, org.ID, "iss_1", "done", 50)
	f.api.updateErr = errors.New("linear is down")

	outcome, err := f.svc.ProcessIssueEvent(ctx, issueEvent("org_1", "iss_1", "done"))
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeClaimed, outcome)

	var settled domain.Reward
	assert.NoError(t, f.conn.First(&settled, "id = ?", reward.ID).Error)
	assert.True(t, settled.Claimed, "local settlement survives a failed annotation")
	assert.EqualValues(t, 1, f.countRows(t, &domain.PointLog{}))
}

func TestProcessIssueEvent_PointsAccumulateAcrossRewards(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, "org_1", "lin_api_123")
	f.seedReward(t, org.ID, "iss_1", "done", 50)
	f.seedReward(t, org.ID, "iss_2", "done", 25)

	outcome, err := f.svc.ProcessIssueEvent(ctx, issueEvent("org_1", "iss_1", "done"))
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeClaimed, outcome)

	f.clock.Advance(time.Minute)
	outcome, err = f.svc.ProcessIssueEvent(ctx, issueEvent("org_1", "iss_2", "done"))
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeClaimed, outcome)

	var account identitydomain.Account
	assert.NoError(t, f.conn.First(&account).Error)
	assert.EqualValues(t, 75, account.Points)

	logs, err := f.svc.ListPointLogs(ctx, account.ID)
	assert.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.EqualValues(t, 0, logs[0].PreviousPoints)
	assert.EqualValues(t, 50, logs[0].NewPoints)
	assert.EqualValues(t, 50, logs[1].PreviousPoints)
	assert.EqualValues(t, 75, logs[1].NewPoints)
}

func TestClaimReward_FirstWriterWins(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, "org_1", "lin_api_123")
	reward := f.seedReward(t, org.ID, "iss_1", "done", 50)
	accountID := f.node.Generate()

	repo := repository.NewRepository(f.conn)
	claimed, err := repo.ClaimReward(ctx, reward.ID, accountID, f.clock.Now())
	assert.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimReward(ctx, reward.ID, f.node.Generate(), f.clock.Now())
	assert.NoError(t, err)
	assert.False(t, claimed, "the conditional update admits exactly one writer")

	var settled domain.Reward
	assert.NoError(t, f.conn.First(&settled, "id = ?", reward.ID).Error)
	assert.Equal(t, accountID, *settled.ClaimedBy)
}

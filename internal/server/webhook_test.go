package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	identitydomain "github.com/acknowledge-dev/acknowledge/internal/identity/domain"
	"github.com/acknowledge-dev/acknowledge/internal/linear"
	orgdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	rewarddomain "github.com/acknowledge-dev/acknowledge/internal/reward/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeRewardService struct {
	outcome rewarddomain.Outcome
	err     error
	events  []linear.IssueUpdate
	logs    []rewarddomain.PointLog
	logsErr error
}

func (f *fakeRewardService) ProcessIssueEvent(ctx context.Context, event linear.IssueUpdate) (rewarddomain.Outcome, error) {
	f.events = append(f.events, event)
	return f.outcome, f.err
}

func (f *fakeRewardService) ListPointLogs(ctx context.Context, accountID snowflake.ID) ([]rewarddomain.PointLog, error) {
	return f.logs, f.logsErr
}

type fakeOrganizationService struct {
	org *orgdomain.Organization
	err error
}

func (f *fakeOrganizationService) EnsureByLinearID(ctx context.Context, linearID string) (*orgdomain.Organization, error) {
	return f.org, f.err
}

func (f *fakeOrganizationService) GetByLinearID(ctx context.Context, linearID string) (*orgdomain.Organization, error) {
	return f.org, f.err
}

func (f *fakeOrganizationService) SetAPIKey(ctx context.Context, linearID, apiKey string) (*orgdomain.Organization, error) {
	return f.org, f.err
}

func newTestServer(rewards rewarddomain.Service, orgs orgdomain.Service) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	s := &Server{
		engine:          engine,
		log:             zap.NewNop(),
		rewardSvc:       rewards,
		organizationSvc: orgs,
	}
	s.RegisterRoutes()
	return s
}

func postWebhook(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/linear/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

const claimPayload = `{
	"type": "Issue",
	"action": "update",
	"organizationId": "org_1",
	"updatedFrom": {"stateId": "todo"},
	"data": {"id": "iss_1", "stateId": "done", "assignee": {"id": "user_9"}}
}`

func TestHandleLinearWebhook_ProcessesClaim(t *testing.T) {
	rewards := &fakeRewardService{outcome: rewarddomain.OutcomeClaimed}
	s := newTestServer(rewards, &fakeOrganizationService{})

	rec := postWebhook(s, claimPayload)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Len(t, rewards.events, 1)
	assert.Equal(t, "org_1", rewards.events[0].OrganizationID)
	assert.Equal(t, "iss_1", rewards.events[0].IssueID)
	assert.Equal(t, "user_9", rewards.events[0].AssigneeID)
	assert.Equal(t, "done", rewards.events[0].StateID)
}

func TestHandleLinearWebhook_IgnoresIrrelevantEvents(t *testing.T) {
	rewards := &fakeRewardService{}
	s := newTestServer(rewards, &fakeOrganizationService{})

	rec := postWebhook(s, `{"type": "Comment", "action": "create", "organizationId": "org_1", "data": {"id": "c_1"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Empty(t, rewards.events, "ignored deliveries never reach the pipeline")
}

func TestHandleLinearWebhook_MalformedBody(t *testing.T) {
	s := newTestServer(&fakeRewardService{}, &fakeOrganizationService{})

	rec := postWebhook(s, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var res errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "invalid_request", res.Error.Type)
}

func TestHandleLinearWebhook_MissingCredential(t *testing.T) {
	rewards := &fakeRewardService{err: identitydomain.ErrMissingCredential}
	s := newTestServer(rewards, &fakeOrganizationService{})

	rec := postWebhook(s, claimPayload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var res errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "missing_credential", res.Error.Type)
}

func TestHandleLinearWebhook_RemoteLookupFailed(t *testing.T) {
	rewards := &fakeRewardService{err: identitydomain.ErrRemoteLookupFailed}
	s := newTestServer(rewards, &fakeOrganizationService{})

	rec := postWebhook(s, claimPayload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var res errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "remote_lookup_failed", res.Error.Type)
}

func TestHandleLinearWebhook_InternalError(t *testing.T) {
	rewards := &fakeRewardService{err: errors.New("db gone")}
	s := newTestServer(rewards, &fakeOrganizationService{})

	rec := postWebhook(s, claimPayload)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var res errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "internal_error", res.Error.Type)
	assert.NotContains(t, rec.Body.String(), "db gone", "internal detail stays out of response bodies")
}

func TestHandleSetAPIKey(t *testing.T) {
	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	org := &orgdomain.Organization{ID: node.Generate(), LinearID: "org_1"}
	s := newTestServer(&fakeRewardService{}, &fakeOrganizationService{org: org})

	req := httptest.NewRequest(http.MethodPut, "/api/organizations/org_1/api-key", strings.NewReader(`{"api_key":"lin_api_123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"org_1"`)
}

func TestHandleSetAPIKey_InvalidKey(t *testing.T) {
	s := newTestServer(&fakeRewardService{}, &fakeOrganizationService{err: orgdomain.ErrInvalidAPIKey})

	req := httptest.NewRequest(http.MethodPut, "/api/organizations/org_1/api-key", strings.NewReader(`{"api_key":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListPointLogs(t *testing.T) {
	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	accountID := node.Generate()
	rewards := &fakeRewardService{logs: []rewarddomain.PointLog{{
		ID:        node.Generate(),
		AccountID: accountID,
		NewPoints: 50,
	}}}
	s := newTestServer(rewards, &fakeOrganizationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+accountID.String()+"/point-logs", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"point_logs"`)
}

func TestHandleListPointLogs_BadID(t *testing.T) {
	s := newTestServer(&fakeRewardService{}, &fakeOrganizationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/not-a-number/point-logs", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

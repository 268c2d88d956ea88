package service

import (
	"context"
	"strings"

	"github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	"github.com/acknowledge-dev/acknowledge/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

type service struct {
	repo  domain.Repository
	genID *snowflake.Node
	log   *zap.Logger
}

func NewService(repo domain.Repository, genID *snowflake.Node, log *zap.Logger) domain.Service {
	return &service{
		repo:  repo,
		genID: genID,
		log:   log.Named("organization.service"),
	}
}

func (s *service) EnsureByLinearID(ctx context.Context, linearID string) (*domain.Organization, error) {
	linearID = strings.TrimSpace(linearID)
	if linearID == "" {
		return nil, domain.ErrInvalidLinearID
	}

	org, err := s.repo.FindByLinearID(ctx, linearID)
	if err != nil {
		return nil, err
	}
	if org != nil {
		return org, nil
	}

	created := domain.Organization{
		ID:       s.genID.Generate(),
		LinearID: linearID,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		// Concurrent deliveries may race the first insert for a workspace.
		// The loser re-reads and returns the winner's row.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByLinearID(ctx, linearID)
		}
		return nil, err
	}

	s.log.Info("organization provisioned", zap.String("linear_id", linearID))
	return s.repo.FindByLinearID(ctx, linearID)
}

func (s *service) GetByLinearID(ctx context.Context, linearID string) (*domain.Organization, error) {
	linearID = strings.TrimSpace(linearID)
	if linearID == "" {
		return nil, domain.ErrInvalidLinearID
	}
	org, err := s.repo.FindByLinearID(ctx, linearID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (s *service) SetAPIKey(ctx context.Context, linearID, apiKey string) (*domain.Organization, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.ErrInvalidAPIKey
	}

	org, err := s.EnsureByLinearID(ctx, linearID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAPIKey(ctx, org.ID, apiKey); err != nil {
		return nil, err
	}
	return s.repo.FindByLinearID(ctx, linearID)
}

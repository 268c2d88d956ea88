package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acknowledge-dev/acknowledge/internal/identity/domain"
	"github.com/acknowledge-dev/acknowledge/internal/linear"
	orgdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	"github.com/acknowledge-dev/acknowledge/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db      *gorm.DB
	repo    domain.Repository
	orgs    orgdomain.Service
	clients linear.Factory
	genID   *snowflake.Node
	log     *zap.Logger
}

func NewService(
	conn *gorm.DB,
	repo domain.Repository,
	orgs orgdomain.Service,
	clients linear.Factory,
	genID *snowflake.Node,
	log *zap.Logger,
) domain.Resolver {
	return &service{
		db:      conn,
		repo:    repo,
		orgs:    orgs,
		clients: clients,
		genID:   genID,
		log:     log.Named("identity.resolver"),
	}
}

// Resolve implements the lookup order of the claim pipeline: cheap local
// account hit first, remote profile fetch only for never-seen identities.
func (s *service) Resolve(ctx context.Context, linearOrgID, providerUserID string) (*domain.Account, *orgdomain.Organization, error) {
	providerUserID = strings.TrimSpace(providerUserID)
	if providerUserID == "" {
		return nil, nil, domain.ErrInvalidProviderUser
	}

	org, err := s.orgs.EnsureByLinearID(ctx, linearOrgID)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.repo.FindAccount(ctx, domain.ProviderLinear, providerUserID, org.ID)
	if err != nil {
		return nil, nil, err
	}
	if account != nil {
		return account, org, nil
	}

	if !org.HasAPIKey() {
		return nil, nil, domain.ErrMissingCredential
	}

	profile, err := s.clients(org.APIKeyValue()).User(ctx, providerUserID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrRemoteLookupFailed, err)
	}

	account, err = s.createAccount(ctx, org.ID, providerUserID, profile)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Another delivery created the same identity concurrently;
			// return the winner's row.
			return s.refetch(ctx, providerUserID, org)
		}
		return nil, nil, err
	}

	s.log.Info("account provisioned",
		zap.String("provider_account_id", providerUserID),
		zap.String("linear_org_id", org.LinearID),
	)
	return account, org, nil
}

func (s *service) createAccount(ctx context.Context, orgID snowflake.ID, providerUserID string, profile *linear.Profile) (*domain.Account, error) {
	account := domain.Account{
		ID:                s.genID.Generate(),
		Provider:          domain.ProviderLinear,
		ProviderAccountID: providerUserID,
		OrgID:             orgID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.FindUserByEmail(ctx, profile.Email)
		if err != nil {
			return err
		}
		if user == nil {
			created := domain.User{
				ID:    s.genID.Generate(),
				Name:  profile.Name,
				Email: profile.Email,
			}
			if err := repo.CreateUser(ctx, created); err != nil {
				return err
			}
			user = &created
		}

		account.UserID = user.ID
		return repo.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *service) refetch(ctx context.Context, providerUserID string, org *orgdomain.Organization) (*domain.Account, *orgdomain.Organization, error) {
	account, err := s.repo.FindAccount(ctx, domain.ProviderLinear, providerUserID, org.ID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, errors.New("account lost after duplicate insert")
	}
	return account, org, nil
}

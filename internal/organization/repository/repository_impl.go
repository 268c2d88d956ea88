package repository

import (
	"context"
	"errors"
	"time"

	"github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) FindByLinearID(ctx context.Context, linearID string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).
		Where("linear_id = ?", linearID).
		First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) Create(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Create(&org).Error
}

func (r *repository) UpdateAPIKey(ctx context.Context, id snowflake.ID, apiKey string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Organization{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"api_key":    apiKey,
			"updated_at": time.Now().UTC(),
		}).Error
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/acknowledge-dev/acknowledge/internal/reward/domain"
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

func (r *repository) FindByIssueID(ctx context.Context, issueID string) (*domain.Reward, error) {
	var reward domain.Reward
	err := r.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		First(&reward).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

func (r *repository) ClaimReward(ctx context.Context, rewardID, accountID snowflake.ID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE rewards
		 SET claimed = ?, claimed_at = ?, claimed_by = ?, updated_at = ?
		 WHERE id = ? AND claimed = ?`,
		true, at, accountID, at, rewardID, false,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) AddAccountPoints(ctx context.Context, accountID snowflake.ID, delta int64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE accounts SET points = points + ?, updated_at = ? WHERE id = ?`,
		delta, at, accountID,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var points int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT points FROM accounts WHERE id = ?`, accountID,
	).Scan(&points).Error
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (r *repository) CreatePointLog(ctx context.Context, entry domain.PointLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *repository) CreateAction(ctx context.Context, action domain.Action) error {
	return r.db.WithContext(ctx).Create(&action).Error
}

func (r *repository) ListPointLogsByAccount(ctx context.Context, accountID snowflake.ID) ([]domain.PointLog, error) {
	var entries []domain.PointLog
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

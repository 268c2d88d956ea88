package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	"github.com/acknowledge-dev/acknowledge/internal/organization/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, conn.AutoMigrate(&domain.Organization{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	return NewService(repository.NewRepository(conn), node, zap.NewNop())
}

func TestEnsureByLinearID_ProvisionsOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureByLinearID(ctx, "org_1")
	assert.NoError(t, err)
	assert.Equal(t, "org_1", first.LinearID)
	assert.False(t, first.HasAPIKey())

	second, err := svc.EnsureByLinearID(ctx, "org_1")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestEnsureByLinearID_RejectsEmptyID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.EnsureByLinearID(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidLinearID)
}

func TestSetAPIKey_ProvisionsAndStoresKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	org, err := svc.SetAPIKey(ctx, "org_1", "lin_api_123")
	assert.NoError(t, err)
	assert.True(t, org.HasAPIKey())
	assert.Equal(t, "lin_api_123", org.APIKeyValue())

	fetched, err := svc.GetByLinearID(ctx, "org_1")
	assert.NoError(t, err)
	assert.Equal(t, org.ID, fetched.ID)
	assert.Equal(t, "lin_api_123", fetched.APIKeyValue())
}

func TestSetAPIKey_RejectsEmptyKey(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SetAPIKey(context.Background(), "org_1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestGetByLinearID_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByLinearID(context.Background(), "org_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

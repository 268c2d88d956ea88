package domain

import (
	"context"
	"errors"
)

type Service interface {
	// EnsureByLinearID returns the tenant for the remote organization id,
	// creating it on first sight. Safe under concurrent creation races.
	EnsureByLinearID(ctx context.Context, linearID string) (*Organization, error)
	GetByLinearID(ctx context.Context, linearID string) (*Organization, error)
	SetAPIKey(ctx context.Context, linearID, apiKey string) (*Organization, error)
}

var (
	ErrInvalidLinearID = errors.New("invalid_linear_id")
	ErrInvalidAPIKey   = errors.New("invalid_api_key")
	ErrNotFound        = errors.New("organization_not_found")
)

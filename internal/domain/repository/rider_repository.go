package repository

import (
	"context"

	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/google/uuid"
)

// RiderRepository defines the interface for rider lookup and onboarding
type RiderRepository interface {
	// GetByCode retrieves a rider by referral code. Returns (nil, nil) when
	// no rider carries the code.
	GetByCode(ctx context.Context, code string) (*model.Rider, error)

	// GetByID retrieves a rider by internal id. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Rider, error)

	// Create persists a new rider. The referral code must be unique.
	Create(ctx context.Context, rider *model.Rider) error
}

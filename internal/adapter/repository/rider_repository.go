package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
)

// riderRepository implements the RiderRepository interface
type riderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRiderRepository creates a new rider repository
func NewRiderRepository(db *gorm.DB, logger *zap.Logger) repository.RiderRepository {
	return &riderRepository{
		db:     db,
		logger: logger,
	}
}

// GetByCode retrieves a rider by referral code
func (r *riderRepository) GetByCode(ctx context.Context, code string) (*model.Rider, error) {
	var rider model.Rider

	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&rider).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get rider by code",
			zap.String("code", code),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get rider by code: %w", err)
	}

	return &rider, nil
}

// GetByID retrieves a rider by internal id
func (r *riderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Rider, error) {
	var rider model.Rider

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rider).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get rider by id",
			zap.String("rider_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get rider by id: %w", err)
	}

	return &rider, nil
}

// Create persists a new rider
func (r *riderRepository) Create(ctx context.Context, rider *model.Rider) error {
	if err := r.db.WithContext(ctx).Create(rider).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("rider code %s: %w", rider.Code, domainErrors.ErrConflict)
		}
		r.logger.Error("failed to create rider",
			zap.String("code", rider.Code),
			zap.Error(err))
		return fmt.Errorf("failed to create rider: %w", err)
	}
	return nil
}

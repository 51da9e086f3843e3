package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
)

// attributionRepository implements the AttributionRepository interface
type attributionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAttributionRepository creates a new attribution repository
func NewAttributionRepository(db *gorm.DB, logger *zap.Logger) repository.AttributionRepository {
	return &attributionRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveByCustomer retrieves the customer's active, non-deleted attribution
func (r *attributionRepository) GetActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Attribution, error) {
	var attribution model.Attribution

	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ? AND deleted_at IS NULL",
			customerID, model.AttributionStatusActive).
		First(&attribution).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get active attribution",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get active attribution: %w", err)
	}

	return &attribution, nil
}

// CreateIfAbsent inserts the attribution only when the customer has no active
// row. The insert targets the partial unique index on customer_id, so under a
// race exactly one concurrent caller gets RowsAffected == 1; the losers read
// back the row that won.
func (r *attributionRepository) CreateIfAbsent(ctx context.Context, attribution *model.Attribution) (bool, *model.Attribution, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("status = 'active' AND deleted_at IS NULL"),
			}},
			DoNothing: true,
		}).
		Create(attribution)

	if result.Error != nil {
		r.logger.Error("failed conditional attribution insert",
			zap.String("customer_id", attribution.CustomerID.String()),
			zap.Error(result.Error))
		return false, nil, fmt.Errorf("failed conditional attribution insert: %w", result.Error)
	}

	if result.RowsAffected == 1 {
		r.logger.Info("attribution created",
			zap.String("customer_id", attribution.CustomerID.String()),
			zap.String("assigned_via", string(attribution.AssignedVia)))
		return true, attribution, nil
	}

	// Lost the race: observe the winner's row.
	current, err := r.GetActiveByCustomer(ctx, attribution.CustomerID)
	if err != nil {
		return false, nil, err
	}
	if current == nil {
		// The winning row vanished between insert and read. Extremely rare;
		// the caller retries safely because the insert is conditional.
		return false, nil, fmt.Errorf("attribution conflict for customer %s but no active row found", attribution.CustomerID)
	}

	return false, current, nil
}

// Touch bumps last_touch_at on an existing attribution
func (r *attributionRepository) Touch(ctx context.Context, attributionID int64, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Attribution{}).
		Where("id = ?", attributionID).
		Updates(map[string]interface{}{
			"last_touch_at": at,
			"updated_at":    at,
		}).Error

	if err != nil {
		r.logger.Error("failed to touch attribution",
			zap.Int64("attribution_id", attributionID),
			zap.Error(err))
		return fmt.Errorf("failed to touch attribution: %w", err)
	}

	return nil
}

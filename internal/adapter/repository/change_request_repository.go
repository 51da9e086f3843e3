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

	"github.com/dashride/referral-service/internal/domain/dto"
	domainErrors "github.com/dashride/referral-service/internal/domain/errors"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
)

// changeRequestRepository implements the ChangeRequestRepository interface
type changeRequestRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewChangeRequestRepository creates a new change request repository
func NewChangeRequestRepository(db *gorm.DB, logger *zap.Logger) repository.ChangeRequestRepository {
	return &changeRequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new pending change request only when the customer has no
// non-denied request. The insert targets the partial unique index on
// customer_id, so under a race exactly one concurrent caller gets
// RowsAffected == 1; the losers return created=false.
func (r *changeRequestRepository) Create(ctx context.Context, request *model.ChangeRequest) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("status <> 'denied'"),
			}},
			DoNothing: true,
		}).
		Create(request)

	if result.Error != nil {
		r.logger.Error("failed conditional change request insert",
			zap.String("customer_id", request.CustomerID.String()),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed conditional change request insert: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// GetByID retrieves a change request
func (r *changeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	var request model.ChangeRequest

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get change request",
			zap.String("request_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get change request: %w", err)
	}

	return &request, nil
}

// GetLatestByCustomer retrieves the customer's most recent request
func (r *changeRequestRepository) GetLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error) {
	var request model.ChangeRequest

	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get latest change request",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get latest change request: %w", err)
	}

	return &request, nil
}

// CountByCustomer counts the customer's requests, optionally excluding denied ones
func (r *changeRequestRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID, includeDenied bool) (int64, error) {
	var count int64

	query := r.db.WithContext(ctx).
		Model(&model.ChangeRequest{}).
		Where("customer_id = ?", customerID)

	if !includeDenied {
		query = query.Where("status <> ?", model.ChangeRequestStatusDenied)
	}

	if err := query.Count(&count).Error; err != nil {
		r.logger.Error("failed to count change requests",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count change requests: %w", err)
	}

	return count, nil
}

// LatestDenied retrieves the customer's most recent denied request
func (r *changeRequestRepository) LatestDenied(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error) {
	var request model.ChangeRequest

	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, model.ChangeRequestStatusDenied).
		Order("created_at DESC").
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get latest denied request",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get latest denied request: %w", err)
	}

	return &request, nil
}

// List retrieves change requests for admin review, newest first
func (r *changeRequestRepository) List(ctx context.Context, filters dto.ListFilters) ([]model.ChangeRequest, int64, error) {
	var requests []model.ChangeRequest
	var count int64

	countQuery := r.db.WithContext(ctx).Model(&model.ChangeRequest{})
	listQuery := r.db.WithContext(ctx).Order("created_at DESC")

	if filters.Status != "" {
		countQuery = countQuery.Where("status = ?", filters.Status)
		listQuery = listQuery.Where("status = ?", filters.Status)
	}

	if err := countQuery.Count(&count).Error; err != nil {
		r.logger.Error("failed to count change requests", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count change requests: %w", err)
	}

	err := listQuery.
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&requests).Error

	if err != nil {
		r.logger.Error("failed to list change requests", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list change requests: %w", err)
	}

	return requests, count, nil
}

// Approve atomically re-attributes the customer and marks the request
// approved. The request row and the customer's attribution row are locked FOR
// UPDATE inside one transaction; the request state shown to readers never
// disagrees with the attribution.
func (r *changeRequestRepository) Approve(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time) (bool, error) {
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.ChangeRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", requestID).
			First(&request).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrNotFound
			}
			return fmt.Errorf("failed to lock change request: %w", err)
		}

		// Only pending requests are actionable; anything else is a no-op so
		// double-submission stays harmless.
		if request.Status != model.ChangeRequestStatusPending {
			r.logger.Info("skipping approval of non-pending change request",
				zap.String("request_id", requestID.String()),
				zap.String("status", string(request.Status)))
			return nil
		}

		toRiderID := request.ToRiderID

		var attribution model.Attribution
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("customer_id = ? AND status = ? AND deleted_at IS NULL",
				request.CustomerID, model.AttributionStatusActive).
			First(&attribution).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// The attribution was soft-deleted since the request was filed;
			// approval re-establishes it.
			attribution = model.Attribution{
				CustomerID:  request.CustomerID,
				RiderID:     &toRiderID,
				Status:      model.AttributionStatusActive,
				AssignedVia: model.AssignedViaAdmin,
				AssignedAt:  at,
				LastTouchAt: at,
			}
			if err := tx.Create(&attribution).Error; err != nil {
				return fmt.Errorf("failed to create attribution on approval: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to lock attribution: %w", err)
		default:
			err = tx.Model(&model.Attribution{}).
				Where("id = ?", attribution.ID).
				Updates(map[string]interface{}{
					"rider_id":      toRiderID,
					"assigned_via":  model.AssignedViaAdmin,
					"assigned_at":   at,
					"last_touch_at": at,
					"updated_at":    at,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update attribution on approval: %w", err)
			}
		}

		err = tx.Model(&model.ChangeRequest{}).
			Where("id = ?", requestID).
			Updates(map[string]interface{}{
				"status":       model.ChangeRequestStatusApproved,
				"approved_by":  adminID,
				"approved_at":  at,
				"admin_reason": adminReason,
				"updated_at":   at,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to mark change request approved: %w", err)
		}

		applied = true
		return nil
	})

	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			r.logger.Error("change request approval failed",
				zap.String("request_id", requestID.String()),
				zap.Error(err))
		}
		return false, err
	}

	if applied {
		r.logger.Info("change request approved",
			zap.String("request_id", requestID.String()),
			zap.String("admin_id", adminID))
	}

	return applied, nil
}

// Deny marks a pending request denied and stamps the cooldown it starts
func (r *changeRequestRepository) Deny(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time, cooldownUntil time.Time) (bool, error) {
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.ChangeRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", requestID).
			First(&request).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrNotFound
			}
			return fmt.Errorf("failed to lock change request: %w", err)
		}

		if request.Status != model.ChangeRequestStatusPending {
			r.logger.Info("skipping denial of non-pending change request",
				zap.String("request_id", requestID.String()),
				zap.String("status", string(request.Status)))
			return nil
		}

		err = tx.Model(&model.ChangeRequest{}).
			Where("id = ?", requestID).
			Updates(map[string]interface{}{
				"status":         model.ChangeRequestStatusDenied,
				"approved_by":    adminID,
				"approved_at":    at,
				"admin_reason":   adminReason,
				"cooldown_until": cooldownUntil,
				"updated_at":     at,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to mark change request denied: %w", err)
		}

		applied = true
		return nil
	})

	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			r.logger.Error("change request denial failed",
				zap.String("request_id", requestID.String()),
				zap.Error(err))
		}
		return false, err
	}

	if applied {
		r.logger.Info("change request denied",
			zap.String("request_id", requestID.String()),
			zap.String("admin_id", adminID))
	}

	return applied, nil
}

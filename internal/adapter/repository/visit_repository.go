package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/dashride/referral-service/internal/domain/repository"
)

// visitRepository implements the VisitRepository interface
type visitRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewVisitRepository creates a new visit log repository
func NewVisitRepository(db *gorm.DB, logger *zap.Logger) repository.VisitRepository {
	return &visitRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes a visit event to the append-only log
func (r *visitRepository) Append(ctx context.Context, event *model.VisitEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.logger.Error("failed to append visit event",
			zap.String("session_id", event.SessionID),
			zap.String("rider_code", event.RiderCode),
			zap.Error(err))
		return fmt.Errorf("failed to append visit event: %w", err)
	}
	return nil
}

// ListBySession retrieves visit events for a session, newest first
func (r *visitRepository) ListBySession(ctx context.Context, sessionID string, filters dto.ListFilters) ([]model.VisitEvent, int64, error) {
	var events []model.VisitEvent
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.VisitEvent{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		r.logger.Error("failed to count visit events",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count visit events: %w", err)
	}

	err = r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&events).Error

	if err != nil {
		r.logger.Error("failed to list visit events",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list visit events: %w", err)
	}

	return events, count, nil
}

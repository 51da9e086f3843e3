package repository

import (
	"context"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/domain/model"
)

// VisitRepository defines the interface for the append-only visit log
type VisitRepository interface {
	// Append writes a visit event. Events are never updated or deleted.
	Append(ctx context.Context, event *model.VisitEvent) error

	// ListBySession retrieves visit events for one session, newest first,
	// for abuse review.
	ListBySession(ctx context.Context, sessionID string, filters dto.ListFilters) ([]model.VisitEvent, int64, error)
}

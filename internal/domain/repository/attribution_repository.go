package repository

import (
	"context"
	"time"

	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/google/uuid"
)

// AttributionRepository defines the interface for the attribution store. All
// writes go through this interface; the UI layer never mutates attribution
// rows directly.
type AttributionRepository interface {
	// GetActiveByCustomer retrieves the customer's active, non-deleted
	// attribution. Returns (nil, nil) when the customer is unattributed.
	GetActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Attribution, error)

	// CreateIfAbsent inserts the attribution only if the customer has no
	// active row yet (conditional insert — exactly one of N concurrent
	// callers wins). Returns created=true when this call inserted the row;
	// otherwise created=false and current holds the row that won.
	CreateIfAbsent(ctx context.Context, attribution *model.Attribution) (created bool, current *model.Attribution, err error)

	// Touch bumps last_touch_at on an existing attribution. Provenance stays
	// fresh without changing the attributed rider.
	Touch(ctx context.Context, attributionID int64, at time.Time) error
}

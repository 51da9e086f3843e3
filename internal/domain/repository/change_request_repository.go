package repository

import (
	"context"
	"time"

	"github.com/dashride/referral-service/internal/domain/dto"
	"github.com/dashride/referral-service/internal/domain/model"
	"github.com/google/uuid"
)

// ChangeRequestRepository defines the interface for rider change requests
type ChangeRequestRepository interface {
	// Create inserts a new pending change request only if the customer has
	// no non-denied request yet (conditional insert against the partial
	// unique index — exactly one of N concurrent callers wins). Returns
	// created=false when a live request already exists.
	Create(ctx context.Context, request *model.ChangeRequest) (created bool, err error)

	// GetByID retrieves a change request. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)

	// GetLatestByCustomer retrieves the customer's most recent request.
	// Returns (nil, nil) when the customer never filed one.
	GetLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error)

	// CountByCustomer counts the customer's requests, optionally excluding
	// denied ones. Drives the one-shot allowance check.
	CountByCustomer(ctx context.Context, customerID uuid.UUID, includeDenied bool) (int64, error)

	// LatestDenied retrieves the customer's most recent denied request, used
	// to derive the active cooldown. Returns (nil, nil) when none exists.
	LatestDenied(ctx context.Context, customerID uuid.UUID) (*model.ChangeRequest, error)

	// List retrieves requests for admin review, newest first.
	List(ctx context.Context, filters dto.ListFilters) ([]model.ChangeRequest, int64, error)

	// Approve atomically re-attributes the customer to the request's target
	// rider and marks the request approved. Both writes commit together or
	// not at all. Returns applied=false when the request is not pending
	// (idempotent against double-submission).
	Approve(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time) (applied bool, err error)

	// Deny marks a pending request denied and stamps the cooldown window the
	// denial starts. Returns applied=false when the request is not pending.
	Deny(ctx context.Context, requestID uuid.UUID, adminID string, adminReason *string, at time.Time, cooldownUntil time.Time) (applied bool, err error)
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChangeRequestOutcome is the typed result of a change request creation
type ChangeRequestOutcome string

const (
	ChangeOutcomePending           ChangeRequestOutcome = "pending"
	ChangeOutcomeInvalidCode       ChangeRequestOutcome = "invalid_code"
	ChangeOutcomeNoCurrentReferral ChangeRequestOutcome = "no_current_referral"
	ChangeOutcomeSameRider         ChangeRequestOutcome = "same_rider"
	ChangeOutcomeCooldown          ChangeRequestOutcome = "cooldown"
	ChangeOutcomeBlocked           ChangeRequestOutcome = "blocked"
)

// Blocked reasons for change request creation
const (
	ReasonAlreadyRequested = "already_requested"
)

// CreateChangeRequestInput carries a customer's request to switch rider
type CreateChangeRequestInput struct {
	CustomerID  uuid.UUID
	ToRiderCode string
	Reason      *string
	IPAddress   string
	UserAgent   string
}

// ChangeRequestResult is the typed outcome returned to the caller
type ChangeRequestResult struct {
	Status        ChangeRequestOutcome `json:"status"`
	Reason        string               `json:"reason,omitempty"`
	RequestID     *uuid.UUID           `json:"request_id,omitempty"`
	CooldownUntil *time.Time           `json:"cooldown_until,omitempty"`
}

// AdjudicationAction is the admin decision on a pending change request
type AdjudicationAction string

const (
	ActionApprove AdjudicationAction = "approve"
	ActionDeny    AdjudicationAction = "deny"
)

// AdjudicateInput carries an admin decision
type AdjudicateInput struct {
	RequestID   uuid.UUID
	Action      AdjudicationAction
	AdminID     string
	AdminReason *string
}

// ChangeRequestView is the customer/admin-facing projection of a request
type ChangeRequestView struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	FromRiderID   *uuid.UUID `json:"from_rider_id,omitempty"`
	ToRiderID     uuid.UUID  `json:"to_rider_id"`
	Reason        *string    `json:"reason,omitempty"`
	Status        string     `json:"status"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	AdminReason   *string    `json:"admin_reason,omitempty"`
	ApprovedBy    *string    `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ChangeRequestListResponse is the paginated admin listing
type ChangeRequestListResponse struct {
	Requests   []ChangeRequestView `json:"requests"`
	Pagination PaginationInfo      `json:"pagination"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// ListFilters contains query filters for admin listings
type ListFilters struct {
	Status string
	Limit  int
	Offset int
}

// SetDefaults sets default values for pagination
func (f *ListFilters) SetDefaults() {
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

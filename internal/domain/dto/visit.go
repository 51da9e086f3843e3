package dto

import (
	"time"

	"github.com/google/uuid"
)

// VisitStatus is the typed outcome of a referral link visit
type VisitStatus string

const (
	VisitStatusAssigned        VisitStatus = "assigned"
	VisitStatusAlreadyAssigned VisitStatus = "already_assigned"
	VisitStatusCookieOnly      VisitStatus = "cookie_only"
	VisitStatusBlocked         VisitStatus = "blocked"
	VisitStatusInvalidCode     VisitStatus = "invalid_code"

	// VisitStatusNoOp is returned by confirmation when no pending code was
	// presented; nothing was written and nothing needs clearing.
	VisitStatusNoOp VisitStatus = "no_op"
)

// Blocked reasons surfaced to the presentation layer
const (
	ReasonAlreadyAttributed = "already_attributed"
)

// VisitInput carries an inbound referral link click
type VisitInput struct {
	RiderCode         string
	SessionID         string
	IPAddress         string
	UserAgent         string
	DeviceFingerprint *string

	// CustomerID is set when the visitor is already authenticated.
	CustomerID *uuid.UUID
}

// PendingAttribution is a cookie-held attribution candidate awaiting account
// confirmation. The transport layer decides how to carry it (cookie, local
// storage, server-side session); the core only defines the value.
type PendingAttribution struct {
	SessionID string    `json:"session_id"`
	RiderCode string    `json:"rider_code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VisitResult is the typed outcome returned to the routing layer
type VisitResult struct {
	Status    VisitStatus         `json:"status"`
	Reason    string              `json:"reason,omitempty"`
	RiderID   *uuid.UUID          `json:"rider_id,omitempty"`
	SessionID string              `json:"session_id"`
	Pending   *PendingAttribution `json:"pending,omitempty"`
}

// ConfirmInput carries the cookie state consumed at signup/login
type ConfirmInput struct {
	CustomerID uuid.UUID
	RiderCode  string
	SessionID  string
	IPAddress  string
	UserAgent  string
}

// ConfirmResult is the outcome of consuming a pending attribution. ClearCookie
// is true whenever a code was presented: a pending code is one-shot and must
// never be replayed, whatever the outcome.
type ConfirmResult struct {
	Status      VisitStatus `json:"status"`
	Reason      string      `json:"reason,omitempty"`
	RiderID     *uuid.UUID  `json:"rider_id,omitempty"`
	ClearCookie bool        `json:"clear_cookie"`
}

// AttributionView is the customer-facing projection of the current attribution
type AttributionView struct {
	CustomerID  uuid.UUID  `json:"customer_id"`
	RiderID     *uuid.UUID `json:"rider_id,omitempty"`
	RiderCode   string     `json:"rider_code,omitempty"`
	RiderName   string     `json:"rider_name,omitempty"`
	AssignedVia string     `json:"assigned_via,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
}

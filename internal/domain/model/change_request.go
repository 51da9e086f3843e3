package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeRequestStatus represents the adjudication state of a change request
type ChangeRequestStatus string

const (
	ChangeRequestStatusPending  ChangeRequestStatus = "pending"
	ChangeRequestStatusApproved ChangeRequestStatus = "approved"
	ChangeRequestStatusDenied   ChangeRequestStatus = "denied"
)

// Scan implements sql.Scanner interface
func (s *ChangeRequestStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = ChangeRequestStatus(v)
	case []byte:
		*s = ChangeRequestStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into ChangeRequestStatus", src)
	}
	return nil
}

// Value implements driver.Valuer interface
func (s ChangeRequestStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// ChangeRequest is a customer-initiated, admin-adjudicated request to
// re-attribute to a different rider. Rows are appended once; only the
// adjudication fields mutate afterwards.
type ChangeRequest struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	FromRiderID   *uuid.UUID          `gorm:"column:from_rider_id;type:uuid" json:"from_rider_id,omitempty"`
	ToRiderID     uuid.UUID           `gorm:"column:to_rider_id;type:uuid;not null" json:"to_rider_id"`
	Reason        *string             `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Status        ChangeRequestStatus `gorm:"column:status;size:20;default:'pending';index" json:"status"`
	CooldownUntil *time.Time          `gorm:"column:cooldown_until" json:"cooldown_until,omitempty"`
	AdminReason   *string             `gorm:"column:admin_reason;type:text" json:"admin_reason,omitempty"`
	ApprovedBy    *string             `gorm:"column:approved_by;size:64" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time          `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedAt     time.Time           `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ChangeRequest) TableName() string {
	return "rider_change_request"
}

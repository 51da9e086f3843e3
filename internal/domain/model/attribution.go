package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttributionStatus represents the state of an attribution row
type AttributionStatus string

const (
	AttributionStatusActive   AttributionStatus = "active"
	AttributionStatusInactive AttributionStatus = "inactive"
)

// Scan implements sql.Scanner interface
func (s *AttributionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = AttributionStatus(v)
	case []byte:
		*s = AttributionStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into AttributionStatus", src)
	}
	return nil
}

// Value implements driver.Valuer interface
func (s AttributionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// AssignedVia records how an attribution was established
type AssignedVia string

const (
	AssignedViaLinkClick AssignedVia = "link_click"
	AssignedViaAdmin     AssignedVia = "admin"
)

// Attribution links a customer to the rider credited for their orders.
// At most one active, non-deleted row exists per customer at any instant;
// the partial unique index on customer_id enforces this in the database.
type Attribution struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	RiderID     *uuid.UUID        `gorm:"column:rider_id;type:uuid" json:"rider_id,omitempty"`
	Status      AttributionStatus `gorm:"column:status;size:20;default:'active'" json:"status"`
	AssignedVia AssignedVia       `gorm:"column:assigned_via;size:20;not null" json:"assigned_via"`
	AssignedAt  time.Time         `gorm:"column:assigned_at;not null" json:"assigned_at"`
	LastTouchAt time.Time         `gorm:"column:last_touch_at;not null" json:"last_touch_at"`
	CreatedAt   time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"default:now()" json:"updated_at"`
	DeletedAt   *time.Time        `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Attribution) TableName() string {
	return "customer_rider_attribution"
}

// IsAttributedTo reports whether this attribution credits the given rider.
func (a *Attribution) IsAttributedTo(riderID uuid.UUID) bool {
	return a.RiderID != nil && *a.RiderID == riderID
}

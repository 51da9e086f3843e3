package model

import (
	"time"

	"github.com/google/uuid"
)

// RiderStatus represents the lifecycle state of a rider
type RiderStatus string

const (
	RiderStatusActive   RiderStatus = "active"
	RiderStatusInactive RiderStatus = "inactive"
)

// Rider is a courier identity eligible to receive referral attribution credit.
// The referral code is immutable once issued.
type Rider struct {
	ID        uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code      string      `gorm:"column:code;uniqueIndex;size:16;not null" json:"code"`
	Name      string      `gorm:"column:name;size:255" json:"name"`
	Status    RiderStatus `gorm:"column:status;size:20;default:'active'" json:"status"`
	CreatedAt time.Time   `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time   `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Rider) TableName() string {
	return "riders"
}

// IsActive reports whether the rider can currently receive attributions.
func (r *Rider) IsActive() bool {
	return r.Status == RiderStatusActive
}

package model

import (
	"time"
)

// VisitEvent is an append-only record of a referral link click. Rows are
// written once and never mutated or deleted by this service; they exist for
// audit and abuse-rate review only.
type VisitEvent struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID         string    `gorm:"column:session_id;size:64;not null;index" json:"session_id"`
	RiderCode         string    `gorm:"column:rider_code;size:16;not null;index" json:"rider_code"`
	IPAddress         string    `gorm:"column:ip_address;size:45" json:"ip_address"`
	UserAgent         string    `gorm:"column:user_agent;type:text" json:"user_agent"`
	DeviceFingerprint *string   `gorm:"column:device_fingerprint;size:128" json:"device_fingerprint,omitempty"`
	// Flagged marks visits worth reviewing: unresolvable codes and sessions
	// over the rate limit.
	Flagged   bool      `gorm:"column:flagged;default:false" json:"flagged"`
	Metadata  JSONB     `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"default:now();index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (VisitEvent) TableName() string {
	return "referral_visit_log"
}

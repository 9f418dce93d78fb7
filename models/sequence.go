package models

import (
	"time"

	"gorm.io/gorm"
)

// Sequence stop reasons
const (
	StopReasonManual    = "manual"
	StopReasonCompleted = "completed"
)

// EmailSequence is one lead's enrollment in one campaign. At most one
// active row may exist per lead; the store enforces this at enrollment.
// Rows are kept after stopping for audit.
type EmailSequence struct {
	gorm.Model
	LeadID     uint `gorm:"not null;index" json:"lead_id"`
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	// Both nil whenever IsActive is false. NextEmailDay is always one of
	// the campaign's day offsets.
	NextEmailDay  *int       `json:"next_email_day"`
	NextEmailDate *time.Time `gorm:"index" json:"next_email_date"`

	StartedAt     time.Time  `gorm:"not null" json:"started_at"`
	StoppedAt     *time.Time `json:"stopped_at"`
	StoppedReason *string    `json:"stopped_reason"` // manual | completed
}

package models

import (
	"gorm.io/gorm"
)

// Campaign is the immutable configuration of a drip program: which leads
// it targets and on which day offsets (from enrollment) emails fire.
type Campaign struct {
	gorm.Model

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Day offsets from enrollment, strictly increasing. The first entry is
	// the delay before the first send.
	Days []int `gorm:"type:jsonb;serializer:json" json:"days"`

	// Eligibility gate
	TargetStatus string `gorm:"not null" json:"target_status"`
	MinBudget    int64  `gorm:"default:0" json:"min_budget"`

	IsDefault bool `gorm:"default:false;index" json:"is_default"`

	// Relations
	Sequences []EmailSequence `gorm:"foreignKey:CampaignID" json:"sequences,omitempty"`
}

// NextDayAfter returns the day offset following sentDay, or false when
// sentDay is the last step.
func (c *Campaign) NextDayAfter(sentDay int) (int, bool) {
	for i, d := range c.Days {
		if d == sentDay && i+1 < len(c.Days) {
			return c.Days[i+1], true
		}
	}
	return 0, false
}

// HasDay reports whether day is one of the campaign's offsets
func (c *Campaign) HasDay(day int) bool {
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

// CreateDefaultCampaign seeds the stock relance program on first boot
func CreateDefaultCampaign(db *gorm.DB) error {
	campaign := Campaign{
		Name:         "Relance sans réponse",
		Description:  "Automated follow-up for unresponsive qualified leads",
		Days:         []int{7, 14, 21, 30},
		TargetStatus: "No response",
		MinBudget:    500000,
		IsDefault:    true,
	}
	return db.FirstOrCreate(&campaign, "name = ?", campaign.Name).Error
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Agent is a broker/negotiator account able to sign in and own leads
type Agent struct {
	gorm.Model

	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	IsActive     bool `gorm:"default:true" json:"is_active"`
	TokenVersion int  `gorm:"default:0" json:"-"`

	// Relations
	Leads         []Lead         `gorm:"foreignKey:AssignedAgentID" json:"leads,omitempty"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:AgentID" json:"-"`
}

// RefreshToken stores issued refresh tokens so they can be revoked
type RefreshToken struct {
	gorm.Model
	AgentID   uint      `gorm:"not null;index" json:"agent_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

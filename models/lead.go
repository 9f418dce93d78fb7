package models

import (
	"time"

	"gorm.io/gorm"
)

// ActionKind discriminates manual agent tasks from touchpoints written by
// the drip scheduler.
type ActionKind string

const (
	ActionKindManual    ActionKind = "manual"
	ActionKindAutomated ActionKind = "automated"
)

// Lead represents a buyer or seller contact managed by the brokerage
type Lead struct {
	gorm.Model

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"index" json:"email"`
	Phone string `json:"phone"`

	// Free-form pipeline label, e.g. "New", "No response", "Conclus"
	Status string `gorm:"index" json:"status"`

	// Free-text, currency-agnostic, e.g. "1.2M EUR" or "850 000"
	Budget string `json:"budget"`

	AssignedAgentID *uint      `gorm:"index" json:"assigned_agent_id"`
	LastContactedAt *time.Time `json:"last_contacted_at"`

	// Relations
	Tags       []LeadTag      `gorm:"foreignKey:LeadID" json:"tags,omitempty"`
	Actions    []Action       `gorm:"foreignKey:LeadID" json:"actions,omitempty"`
	Activities []LeadActivity `gorm:"foreignKey:LeadID" json:"activities,omitempty"`
}

// TagNames flattens the tag relation for priority snapshots
func (l *Lead) TagNames() []string {
	names := make([]string, 0, len(l.Tags))
	for _, t := range l.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// Action is one customer-contact task in a lead's history, either created
// by an agent (Call, Visite, Relance...) or appended by the scheduler
// (Email Auto J+N). Completion is recorded by setting CompletedDate; rows
// are never mutated otherwise.
type Action struct {
	gorm.Model
	LeadID uint `gorm:"not null;index" json:"lead_id"`

	Kind       ActionKind `gorm:"not null;default:'manual'" json:"kind"`
	SequenceID *uint      `gorm:"index" json:"sequence_id,omitempty"` // set when Kind == automated

	ActionType    string     `gorm:"not null" json:"action_type"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date"`
	Notes         string     `gorm:"type:text" json:"notes"`
}

// LeadTag represents tags for leads (normalized)
type LeadTag struct {
	gorm.Model
	LeadID uint   `gorm:"not null;index" json:"lead_id"`
	Tag    string `gorm:"not null;index" json:"tag"`
}

// LeadActivity is the audit trail of automated sends and sequence
// transitions for a lead
type LeadActivity struct {
	gorm.Model
	LeadID     uint  `gorm:"not null;index" json:"lead_id"`
	SequenceID *uint `json:"sequence_id,omitempty"`

	ActivityType string    `gorm:"not null" json:"activity_type"` // email_sent, sequence_started, sequence_stopped
	ActivityAt   time.Time `gorm:"not null" json:"activity_at"`
	Details      string    `gorm:"type:text" json:"details"`
}

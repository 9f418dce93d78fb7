package utils

import (
	"strings"
	"time"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
)

// LeadPriority is the default tie-break comparator injected into the
// worklist scheduler. It weighs pipeline status, hot tags and follow-up
// recency into a single rank. The scheduler treats it as an opaque
// strategy; swap it without touching the ordering rules.
type LeadPriority struct {
	Now time.Time
}

func NewLeadPriority(now time.Time) *LeadPriority {
	return &LeadPriority{Now: now}
}

// Compare returns >0 when a outranks b, <0 when b outranks a
func (p *LeadPriority) Compare(a, b scheduler.LeadSnapshot) int {
	ra, rb := p.rank(a), p.rank(b)
	switch {
	case ra > rb:
		return 1
	case ra < rb:
		return -1
	default:
		return 0
	}
}

var statusWeights = map[string]int{
	"New":         40,
	"Contacted":   25,
	"No response": 20,
	"Visite":      30,
	"Offre":       50,
	"Conclus":     -100,
	"Perdu":       -100,
}

var hotTags = map[string]int{
	"vip":      25,
	"hot":      20,
	"cash":     15,
	"investor": 10,
}

func (p *LeadPriority) rank(s scheduler.LeadSnapshot) int {
	rank := statusWeights[s.Status]

	for _, tag := range s.Tags {
		rank += hotTags[strings.ToLower(tag)]
	}

	// A follow-up slipping into the past pushes the lead up, capped so
	// ancient leads don't drown everything else.
	if s.NextFollowUp != nil && s.NextFollowUp.Before(p.Now) {
		daysLate := int(p.Now.Sub(*s.NextFollowUp).Hours() / 24)
		if daysLate > 30 {
			daysLate = 30
		}
		rank += daysLate
	}

	// Fresh leads beat stale ones at equal standing.
	ageDays := int(p.Now.Sub(s.CreatedAt).Hours() / 24)
	if ageDays < 7 {
		rank += 7 - ageDays
	}

	return rank
}

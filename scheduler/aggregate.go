package scheduler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

// ActionItem is the flattened, status-resolved projection of one action
// (manual or synthesized from a drip sequence) for worklist consumption.
// It is recomputed on every aggregation pass and never persisted.
type ActionItem struct {
	ID string `json:"id"`

	LeadID          uint       `json:"lead_id"`
	LeadName        string     `json:"lead_name"`
	LeadStatus      string     `json:"lead_status"`
	LeadTags        []string   `json:"lead_tags"`
	LeadCreatedAt   time.Time  `json:"lead_created_at"`
	AssignedAgentID *uint      `json:"assigned_agent_id"`

	ActionType    string     `json:"action_type"`
	Notes         string     `json:"notes,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date"`

	Status    Status `json:"status"`
	Automated bool   `json:"automated"`
	// SequenceID is set on automated items so callers can request
	// cancellation of the underlying enrollment.
	SequenceID uint `json:"sequence_id,omitempty"`
}

// LeadSnapshot carries the priority-relevant lead fields handed to the
// external tie-break comparator.
type LeadSnapshot struct {
	Status       string
	Tags         []string
	NextFollowUp *time.Time
	CreatedAt    time.Time
}

// Snapshot builds the comparator input for this item, reinterpreting the
// scheduled date as the next follow-up.
func (it ActionItem) Snapshot() LeadSnapshot {
	return LeadSnapshot{
		Status:       it.LeadStatus,
		Tags:         it.LeadTags,
		NextFollowUp: it.ScheduledDate,
		CreatedAt:    it.LeadCreatedAt,
	}
}

// AutomatedItemID is the deterministic id of the synthesized "next
// automated touch" item, stable across aggregation passes so list diffs
// don't flicker.
func AutomatedItemID(sequenceID uint, day int) string {
	return fmt.Sprintf("auto_%d_%d", sequenceID, day)
}

// Aggregate normalizes every action of every lead plus the next scheduled
// touch of every active sequence into one flat list. Malformed actions
// (missing id) are skipped; sequences whose lead is absent from the input
// contribute nothing. No ordering is applied here.
func Aggregate(leads []models.Lead, sequences []models.EmailSequence, now time.Time) []ActionItem {
	byID := make(map[uint]*models.Lead, len(leads))
	items := make([]ActionItem, 0, len(leads))

	for i := range leads {
		lead := &leads[i]
		byID[lead.ID] = lead
		tags := lead.TagNames()

		for j := range lead.Actions {
			action := &lead.Actions[j]
			if action.ID == 0 {
				continue
			}
			item := ActionItem{
				ID:              strconv.FormatUint(uint64(action.ID), 10),
				LeadID:          lead.ID,
				LeadName:        lead.Name,
				LeadStatus:      lead.Status,
				LeadTags:        tags,
				LeadCreatedAt:   lead.CreatedAt,
				AssignedAgentID: lead.AssignedAgentID,
				ActionType:      action.ActionType,
				Notes:           action.Notes,
				ScheduledDate:   action.ScheduledDate,
				CompletedDate:   action.CompletedDate,
				Status:          Resolve(action.ScheduledDate, action.CompletedDate, now),
			}
			if action.Kind == models.ActionKindAutomated {
				item.Automated = true
				if action.SequenceID != nil {
					item.SequenceID = *action.SequenceID
				}
			}
			items = append(items, item)
		}
	}

	for i := range sequences {
		seq := &sequences[i]
		if !seq.IsActive || seq.NextEmailDate == nil || seq.NextEmailDay == nil {
			continue
		}
		lead, ok := byID[seq.LeadID]
		if !ok {
			continue
		}
		status := StatusTodo
		if seq.NextEmailDate.Before(now) {
			status = StatusOverdue
		}
		items = append(items, ActionItem{
			ID:              AutomatedItemID(seq.ID, *seq.NextEmailDay),
			LeadID:          lead.ID,
			LeadName:        lead.Name,
			LeadStatus:      lead.Status,
			LeadTags:        lead.TagNames(),
			LeadCreatedAt:   lead.CreatedAt,
			AssignedAgentID: lead.AssignedAgentID,
			ActionType:      fmt.Sprintf("Email Auto J+%d", *seq.NextEmailDay),
			ScheduledDate:   seq.NextEmailDate,
			Status:          status,
			Automated:       true,
			SequenceID:      seq.ID,
		})
	}

	return items
}

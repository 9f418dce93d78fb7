package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

func TestAggregate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	lead := models.Lead{
		Model:  gorm.Model{ID: 7, CreatedAt: now.AddDate(0, 0, -20)},
		Name:   "Claire Dubois",
		Status: "No response",
		Tags:   []models.LeadTag{{Tag: "vip"}},
	}

	t.Run("manual actions are projected with resolved status", func(t *testing.T) {
		l := lead
		l.Actions = []models.Action{
			{
				Model:         gorm.Model{ID: 41},
				LeadID:        l.ID,
				Kind:          models.ActionKindManual,
				ActionType:    "Call",
				ScheduledDate: daysAgo(now, 2),
			},
			{
				Model:         gorm.Model{ID: 42},
				LeadID:        l.ID,
				Kind:          models.ActionKindManual,
				ActionType:    "Visite",
				ScheduledDate: daysAgo(now, 5),
				CompletedDate: daysAgo(now, 4),
			},
		}

		items := Aggregate([]models.Lead{l}, nil, now)
		require.Len(t, items, 2)

		assert.Equal(t, "41", items[0].ID)
		assert.Equal(t, StatusOverdue, items[0].Status)
		assert.False(t, items[0].Automated)
		assert.Equal(t, "Claire Dubois", items[0].LeadName)
		assert.Equal(t, []string{"vip"}, items[0].LeadTags)

		assert.Equal(t, "42", items[1].ID)
		assert.Equal(t, StatusDone, items[1].Status)
	})

	t.Run("actions without an id are skipped", func(t *testing.T) {
		l := lead
		l.Actions = []models.Action{
			{LeadID: l.ID, ActionType: "Call"}, // never persisted
			{Model: gorm.Model{ID: 43}, LeadID: l.ID, ActionType: "Call"},
		}
		items := Aggregate([]models.Lead{l}, nil, now)
		require.Len(t, items, 1)
		assert.Equal(t, "43", items[0].ID)
	})

	t.Run("active sequence synthesizes the next touch", func(t *testing.T) {
		day := 14
		seq := models.EmailSequence{
			Model:         gorm.Model{ID: 3},
			LeadID:        lead.ID,
			IsActive:      true,
			NextEmailDay:  &day,
			NextEmailDate: timePtr(now.AddDate(0, 0, 2)),
		}

		items := Aggregate([]models.Lead{lead}, []models.EmailSequence{seq}, now)
		require.Len(t, items, 1)

		item := items[0]
		assert.Equal(t, "auto_3_14", item.ID)
		assert.Equal(t, "Email Auto J+14", item.ActionType)
		assert.Equal(t, StatusTodo, item.Status)
		assert.True(t, item.Automated)
		assert.Equal(t, uint(3), item.SequenceID)
		assert.Equal(t, lead.ID, item.LeadID)
	})

	t.Run("past-due sequence touch is overdue", func(t *testing.T) {
		day := 7
		seq := models.EmailSequence{
			Model:         gorm.Model{ID: 4},
			LeadID:        lead.ID,
			IsActive:      true,
			NextEmailDay:  &day,
			NextEmailDate: daysAgo(now, 1),
		}
		items := Aggregate([]models.Lead{lead}, []models.EmailSequence{seq}, now)
		require.Len(t, items, 1)
		assert.Equal(t, StatusOverdue, items[0].Status)
	})

	t.Run("inactive or incomplete sequences contribute nothing", func(t *testing.T) {
		day := 7
		seqs := []models.EmailSequence{
			{Model: gorm.Model{ID: 5}, LeadID: lead.ID, IsActive: false, NextEmailDay: &day, NextEmailDate: timePtr(now)},
			{Model: gorm.Model{ID: 6}, LeadID: lead.ID, IsActive: true, NextEmailDay: nil, NextEmailDate: timePtr(now)},
			{Model: gorm.Model{ID: 7}, LeadID: lead.ID, IsActive: true, NextEmailDay: &day, NextEmailDate: nil},
		}
		assert.Empty(t, Aggregate([]models.Lead{lead}, seqs, now))
	})

	t.Run("sequence without a matching lead is dropped", func(t *testing.T) {
		day := 7
		seq := models.EmailSequence{
			Model:         gorm.Model{ID: 8},
			LeadID:        999,
			IsActive:      true,
			NextEmailDay:  &day,
			NextEmailDate: timePtr(now),
		}
		assert.Empty(t, Aggregate([]models.Lead{lead}, []models.EmailSequence{seq}, now))
	})

	t.Run("automated id is deterministic", func(t *testing.T) {
		assert.Equal(t, "auto_12_21", AutomatedItemID(12, 21))
	})
}

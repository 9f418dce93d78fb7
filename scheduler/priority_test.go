package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrioritySchedulerSort(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	cmp := scoreComparer{scores: map[string]int{"Offre": 50, "New": 40, "No response": 20}}
	ps := NewPriorityScheduler(cmp)

	ids := func(items []ActionItem) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	t.Run("full cascade", func(t *testing.T) {
		items := []ActionItem{
			{ID: "done", Status: StatusDone, LeadStatus: "Offre", ScheduledDate: daysAgo(now, 3)},
			{ID: "todo-later", Status: StatusTodo, LeadStatus: "Offre", ScheduledDate: timePtr(now.AddDate(0, 0, 4))},
			{ID: "todo-soon", Status: StatusTodo, LeadStatus: "New", ScheduledDate: timePtr(now.AddDate(0, 0, 1))},
			{ID: "todo-undated", Status: StatusTodo, LeadStatus: "New"},
			{ID: "todo-today", Status: StatusTodo, LeadStatus: "No response", ScheduledDate: timePtr(now.Add(5 * time.Hour))},
			{ID: "overdue", Status: StatusOverdue, LeadStatus: "No response", ScheduledDate: daysAgo(now, 2)},
		}

		got := ps.Sort(items, now)
		assert.Equal(t,
			[]string{"overdue", "todo-today", "todo-undated", "todo-soon", "todo-later", "done"},
			ids(got))
	})

	t.Run("done sinks below everything regardless of lead score", func(t *testing.T) {
		items := []ActionItem{
			{ID: "a", Status: StatusDone, LeadStatus: "Offre"},
			{ID: "b", Status: StatusTodo, LeadStatus: "No response"},
		}
		got := ps.Sort(items, now)
		assert.Equal(t, []string{"b", "a"}, ids(got))
	})

	t.Run("overdue outranks todo regardless of lead score", func(t *testing.T) {
		items := []ActionItem{
			{ID: "hot-todo", Status: StatusTodo, LeadStatus: "Offre", ScheduledDate: timePtr(now.Add(time.Hour))},
			{ID: "cold-overdue", Status: StatusOverdue, LeadStatus: "No response", ScheduledDate: daysAgo(now, 10)},
		}
		got := ps.Sort(items, now)
		assert.Equal(t, []string{"cold-overdue", "hot-todo"}, ids(got))
	})

	t.Run("earlier overdue date first", func(t *testing.T) {
		items := []ActionItem{
			{ID: "recent", Status: StatusOverdue, LeadStatus: "New", ScheduledDate: daysAgo(now, 1)},
			{ID: "ancient", Status: StatusOverdue, LeadStatus: "New", ScheduledDate: daysAgo(now, 9)},
		}
		got := ps.Sort(items, now)
		assert.Equal(t, []string{"ancient", "recent"}, ids(got))
	})

	t.Run("lead score only breaks exact ties", func(t *testing.T) {
		sameDate := timePtr(now.AddDate(0, 0, 2))
		items := []ActionItem{
			{ID: "cold", Status: StatusTodo, LeadStatus: "No response", ScheduledDate: sameDate},
			{ID: "hot", Status: StatusTodo, LeadStatus: "Offre", ScheduledDate: sameDate},
		}
		got := ps.Sort(items, now)
		assert.Equal(t, []string{"hot", "cold"}, ids(got))
	})

	t.Run("sort is idempotent", func(t *testing.T) {
		items := []ActionItem{
			{ID: "done", Status: StatusDone, LeadStatus: "New"},
			{ID: "overdue", Status: StatusOverdue, LeadStatus: "New", ScheduledDate: daysAgo(now, 2)},
			{ID: "todo", Status: StatusTodo, LeadStatus: "New"},
		}
		once := ps.Sort(items, now)
		twice := ps.Sort(once, now)
		assert.Equal(t, ids(once), ids(twice))
	})

	t.Run("input slice is left untouched", func(t *testing.T) {
		items := []ActionItem{
			{ID: "z", Status: StatusDone, LeadStatus: "New"},
			{ID: "a", Status: StatusTodo, LeadStatus: "New"},
		}
		got := ps.Sort(items, now)
		require.Equal(t, []string{"a", "z"}, ids(got))
		assert.Equal(t, "z", items[0].ID)
	})
}

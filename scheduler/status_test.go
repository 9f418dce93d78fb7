package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("no dates is todo", func(t *testing.T) {
		assert.Equal(t, StatusTodo, Resolve(nil, nil, now))
	})

	t.Run("completed wins over everything", func(t *testing.T) {
		past := now.AddDate(0, 0, -30)
		done := now.AddDate(0, 0, -1)
		assert.Equal(t, StatusDone, Resolve(&past, &done, now))
		assert.Equal(t, StatusDone, Resolve(nil, &done, now))
	})

	t.Run("future completion date still counts as done", func(t *testing.T) {
		future := now.AddDate(0, 0, 3)
		assert.Equal(t, StatusDone, Resolve(nil, &future, now))
	})

	t.Run("scheduled yesterday is overdue", func(t *testing.T) {
		yesterday := now.AddDate(0, 0, -1)
		assert.Equal(t, StatusOverdue, Resolve(&yesterday, nil, now))
	})

	t.Run("scheduled later today is todo", func(t *testing.T) {
		tonight := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
		assert.Equal(t, StatusTodo, Resolve(&tonight, nil, now))
	})

	t.Run("scheduled earlier today is still todo", func(t *testing.T) {
		// Overdue is a calendar comparison, not an instant one.
		thisMorning := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)
		assert.Equal(t, StatusTodo, Resolve(&thisMorning, nil, now))
	})

	t.Run("last second of yesterday is overdue", func(t *testing.T) {
		edge := time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, StatusOverdue, Resolve(&edge, nil, now))
	})

	t.Run("scheduled in the future is todo", func(t *testing.T) {
		nextWeek := now.AddDate(0, 0, 7)
		assert.Equal(t, StatusTodo, Resolve(&nextWeek, nil, now))
	})

	t.Run("pure with respect to now", func(t *testing.T) {
		yesterday := now.AddDate(0, 0, -1)
		for i := 0; i < 3; i++ {
			assert.Equal(t, StatusOverdue, Resolve(&yesterday, nil, now))
		}
	})
}

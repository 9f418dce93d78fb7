package scheduler

import "time"

// Status is the derived lifecycle state of an action
type Status string

const (
	StatusTodo    Status = "todo"
	StatusOverdue Status = "overdue"
	StatusDone    Status = "done"
)

// Resolve maps an action's timestamps to its lifecycle state. A set
// completion date always wins, even if it lies in the future: the UI lets
// agents back-date and forward-date completions and no validation is
// applied. Overdue is a date-only comparison against the calendar of now:
// an action scheduled earlier today is still todo.
func Resolve(scheduledDate, completedDate *time.Time, now time.Time) Status {
	if completedDate != nil {
		return StatusDone
	}
	if scheduledDate != nil && scheduledDate.Before(startOfDay(now)) {
		return StatusOverdue
	}
	return StatusTodo
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(t, ref time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

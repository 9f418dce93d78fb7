package scheduler

import (
	"sort"
	"time"
)

// PriorityComparer is the external lead-scoring strategy used as the final
// tie-break. Compare returns >0 when a outranks b, <0 when b outranks a.
type PriorityComparer interface {
	Compare(a, b LeadSnapshot) int
}

// PriorityScheduler produces the display/work order of an aggregated
// worklist.
type PriorityScheduler struct {
	cmp PriorityComparer
}

func NewPriorityScheduler(cmp PriorityComparer) *PriorityScheduler {
	return &PriorityScheduler{cmp: cmp}
}

// Sort returns a new slice holding items in worklist order. The order is a
// single cascading comparator, so the external priority score only breaks
// ties left by the structural rules and never overrides them:
//
//  1. done items after everything else
//  2. overdue before todo
//  3. a todo scheduled today before a todo that is not
//  4. unscheduled before scheduled; earlier scheduled date first
//  5. external lead priority, higher first
//
// The sort is stable and idempotent.
func (ps *PriorityScheduler) Sort(items []ActionItem, now time.Time) []ActionItem {
	out := make([]ActionItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return ps.compare(out[i], out[j], now) < 0
	})
	return out
}

func (ps *PriorityScheduler) compare(a, b ActionItem, now time.Time) int {
	aDone, bDone := a.Status == StatusDone, b.Status == StatusDone
	if aDone != bDone {
		if aDone {
			return 1
		}
		return -1
	}

	if !aDone {
		if a.Status != b.Status {
			// overdue vs todo
			if a.Status == StatusOverdue {
				return -1
			}
			return 1
		}

		if a.Status == StatusTodo {
			aToday := a.ScheduledDate != nil && sameDay(*a.ScheduledDate, now)
			bToday := b.ScheduledDate != nil && sameDay(*b.ScheduledDate, now)
			if aToday != bToday {
				if aToday {
					return -1
				}
				return 1
			}
		}

		switch {
		case a.ScheduledDate == nil && b.ScheduledDate != nil:
			return -1
		case a.ScheduledDate != nil && b.ScheduledDate == nil:
			return 1
		case a.ScheduledDate != nil && b.ScheduledDate != nil:
			if a.ScheduledDate.Before(*b.ScheduledDate) {
				return -1
			}
			if b.ScheduledDate.Before(*a.ScheduledDate) {
				return 1
			}
		}
	}

	// Higher external rank sorts first.
	return -ps.cmp.Compare(a.Snapshot(), b.Snapshot())
}

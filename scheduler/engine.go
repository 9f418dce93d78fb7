package scheduler

import (
	"time"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

// GetWorklist composes aggregation and priority ordering into the single
// call the UI and notification layers consume: every pending action,
// manual and automated, status-resolved and sorted.
func GetWorklist(leads []models.Lead, sequences []models.EmailSequence, now time.Time, cmp PriorityComparer) []ActionItem {
	return NewPriorityScheduler(cmp).Sort(Aggregate(leads, sequences, now), now)
}

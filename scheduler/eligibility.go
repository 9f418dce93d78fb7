package scheduler

import (
	"strconv"
	"time"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

// Leads only qualify for auto-enrollment once they have gone quiet for
// this long.
const eligibilityQuietPeriod = 7 * 24 * time.Hour

// FindEligible filters leads down to those qualifying for auto-enrollment
// in campaign. Pure; enrollment itself is the state machine's job. A lead
// qualifies iff its status matches the campaign target, it has an email,
// it was last contacted more than seven days before now, its parsed budget
// clears the campaign floor and it has no active sequence (any campaign).
func FindEligible(leads []models.Lead, campaign *models.Campaign, activeLeadIDs map[uint]bool, now time.Time) []uint {
	var eligible []uint
	for i := range leads {
		lead := &leads[i]
		if lead.Status != campaign.TargetStatus {
			continue
		}
		if lead.Email == "" {
			continue
		}
		if lead.LastContactedAt == nil || now.Sub(*lead.LastContactedAt) <= eligibilityQuietPeriod {
			continue
		}
		if ParseBudget(lead.Budget) < campaign.MinBudget {
			continue
		}
		if activeLeadIDs[lead.ID] {
			continue
		}
		eligible = append(eligible, lead.ID)
	}
	return eligible
}

// ParseBudget extracts a comparable integer from a free-text budget such
// as "1,200,000 EUR" or "850 000". All non-digit characters are stripped;
// absent or unparsable text counts as zero. Note "1.2M" parses as 12;
// listings feeding this field are expected to spell amounts out.
func ParseBudget(budget string) int64 {
	digits := make([]rune, 0, len(budget))
	for _, r := range budget {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

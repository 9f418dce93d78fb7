package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

func TestParseBudget(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"1,200,000 EUR", 1200000},
		{"850 000", 850000},
		{"€2.500.000", 2500000},
		{"sur demande", 0},
		{"1.2M", 12}, // documented limitation: shorthand is not expanded
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseBudget(c.in), "input %q", c.in)
	}
}

func TestFindEligible(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	campaign := &models.Campaign{
		Model:        gorm.Model{ID: 1},
		Days:         []int{7, 14, 21, 30},
		TargetStatus: "No response",
		MinBudget:    500000,
	}

	base := func(id uint) models.Lead {
		return models.Lead{
			Model:           gorm.Model{ID: id},
			Name:            "Lead",
			Email:           "lead@example.com",
			Status:          "No response",
			Budget:          "1,200,000 EUR",
			LastContactedAt: daysAgo(now, 10),
		}
	}

	t.Run("qualifying lead passes every check", func(t *testing.T) {
		lead := base(1)
		assert.Equal(t, []uint{1}, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("wrong status excluded", func(t *testing.T) {
		lead := base(1)
		lead.Status = "Offre"
		assert.Empty(t, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("missing email excluded", func(t *testing.T) {
		lead := base(1)
		lead.Email = ""
		assert.Empty(t, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("contacted within the quiet period excluded", func(t *testing.T) {
		lead := base(1)
		lead.LastContactedAt = daysAgo(now, 3)
		assert.Empty(t, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("exactly seven days ago is not yet quiet", func(t *testing.T) {
		lead := base(1)
		lead.LastContactedAt = daysAgo(now, 7)
		assert.Empty(t, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("never contacted excluded", func(t *testing.T) {
		lead := base(1)
		lead.LastContactedAt = nil
		assert.Empty(t, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("budget below floor excluded", func(t *testing.T) {
		lead := base(1)
		lead.Budget = "250 000"
		assert.Empty(t, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("budget exactly at floor qualifies", func(t *testing.T) {
		lead := base(1)
		lead.Budget = "500 000 EUR"
		assert.Equal(t, []uint{1}, FindEligible([]models.Lead{lead}, campaign, nil, now))
	})

	t.Run("active sequence excluded whatever its campaign", func(t *testing.T) {
		lead := base(1)
		active := map[uint]bool{1: true}
		assert.Empty(t, FindEligible([]models.Lead{lead}, campaign, active, now))
	})

	t.Run("mixed population filters down", func(t *testing.T) {
		ok := base(1)
		noEmail := base(2)
		noEmail.Email = ""
		poor := base(3)
		poor.Budget = "abc"
		enrolled := base(4)
		leads := []models.Lead{ok, noEmail, poor, enrolled}

		got := FindEligible(leads, campaign, map[uint]bool{4: true}, now)
		assert.Equal(t, []uint{1}, got)
	})
}

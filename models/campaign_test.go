package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignNextDayAfter(t *testing.T) {
	c := Campaign{Days: []int{7, 14, 21, 30}}

	t.Run("middle steps", func(t *testing.T) {
		next, ok := c.NextDayAfter(7)
		assert.True(t, ok)
		assert.Equal(t, 14, next)

		next, ok = c.NextDayAfter(21)
		assert.True(t, ok)
		assert.Equal(t, 30, next)
	})

	t.Run("last step has no successor", func(t *testing.T) {
		_, ok := c.NextDayAfter(30)
		assert.False(t, ok)
	})

	t.Run("unknown day has no successor", func(t *testing.T) {
		_, ok := c.NextDayAfter(10)
		assert.False(t, ok)
	})
}

func TestCampaignHasDay(t *testing.T) {
	c := Campaign{Days: []int{7, 14}}
	assert.True(t, c.HasDay(7))
	assert.True(t, c.HasDay(14))
	assert.False(t, c.HasDay(21))
}

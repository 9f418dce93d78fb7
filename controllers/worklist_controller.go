package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/utils"
)

type WorklistController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewWorklistController(db *gorm.DB, logger *logrus.Logger) *WorklistController {
	return &WorklistController{DB: db, Logger: logger}
}

// GetWorklist returns every pending action (manual and automated) in work
// order. Optional filters: ?agent_id= limits to one agent's leads,
// ?include_done=true keeps completed items at the tail.
func (wc *WorklistController) GetWorklist(c *fiber.Ctx) error {
	now := time.Now()

	var leads []models.Lead
	q := wc.DB.Preload("Tags").Preload("Actions")
	if agentID := c.Query("agent_id"); agentID != "" {
		q = q.Where("assigned_agent_id = ?", utils.ParseUint(agentID))
	}
	if err := q.Find(&leads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load leads", err)
	}

	var sequences []models.EmailSequence
	if err := wc.DB.Where("is_active = ?", true).Find(&sequences).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load sequences", err)
	}

	items := scheduler.GetWorklist(leads, sequences, now, utils.NewLeadPriority(now))

	if c.Query("include_done") != "true" {
		pending := items[:0]
		for _, item := range items {
			if item.Status != scheduler.StatusDone {
				pending = append(pending, item)
			}
		}
		items = pending
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"items": items,
		"count": len(items),
	}))
}

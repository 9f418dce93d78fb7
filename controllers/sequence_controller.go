package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/utils"
)

type SequenceController struct {
	DB      *gorm.DB
	Store   scheduler.Store
	Machine *scheduler.SequenceStateMachine
	Runner  *scheduler.BatchRunner
	Logger  *logrus.Logger
}

func NewSequenceController(db *gorm.DB, store scheduler.Store, runner *scheduler.BatchRunner, logger *logrus.Logger) *SequenceController {
	return &SequenceController{
		DB:      db,
		Store:   store,
		Machine: scheduler.NewSequenceStateMachine(store, logger),
		Runner:  runner,
		Logger:  logger,
	}
}

type StartSequenceRequest struct {
	CampaignID uint `json:"campaign_id"`
	Immediate  bool `json:"immediate"`
}

// StartSequence manually enrolls a lead in a drip campaign
func (sc *SequenceController) StartSequence(c *fiber.Ctx) error {
	var req StartSequenceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	leadID := utils.ParseUint(c.Params("id"))
	ctx := c.UserContext()

	var lead models.Lead
	if err := sc.DB.First(&lead, leadID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}
	if lead.Email == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Lead has no email address", nil)
	}

	var campaign *models.Campaign
	var err error
	if req.CampaignID != 0 {
		campaign, err = sc.Store.GetCampaign(ctx, req.CampaignID)
	} else {
		campaign, err = sc.Store.GetDefaultCampaign(ctx)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", err)
	}

	seq, err := sc.Machine.Start(ctx, lead.ID, campaign, req.Immediate, time.Now())
	if errors.Is(err, scheduler.ErrSequenceExists) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Lead already has an active sequence", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to start sequence", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(seq))
}

// CancelSequence stops a lead's drip sequence. Cancelling an already
// stopped sequence succeeds quietly so double-clicked buttons don't error.
func (sc *SequenceController) CancelSequence(c *fiber.Ctx) error {
	leadID := utils.ParseUint(c.Params("id"))

	err := sc.Machine.Stop(c.UserContext(), leadID, models.StopReasonManual, time.Now())
	if errors.Is(err, scheduler.ErrSequenceNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "No sequence for this lead", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel sequence", err)
	}
	return c.JSON(fiber.Map{"message": "Sequence cancelled"})
}

// GetSequence returns the lead's latest enrollment for UI display
func (sc *SequenceController) GetSequence(c *fiber.Ctx) error {
	leadID := utils.ParseUint(c.Params("id"))

	seq, err := sc.Store.GetSequenceByLead(c.UserContext(), leadID)
	if errors.Is(err, scheduler.ErrSequenceNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "No sequence for this lead", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load sequence", err)
	}
	return c.JSON(utils.SuccessResponse(seq))
}

// RunBatch triggers one batch pass outside the cron schedule. Mostly for
// operators; rate limited.
func (sc *SequenceController) RunBatch(c *fiber.Ctx) error {
	summary, err := sc.Runner.Run(c.UserContext(), time.Now())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Batch run failed", err)
	}
	return c.JSON(utils.SuccessResponse(summary))
}

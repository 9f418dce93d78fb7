package controller

import (
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/utils"
)

type LeadController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewLeadController(db *gorm.DB, logger *logrus.Logger) *LeadController {
	return &LeadController{DB: db, Logger: logger}
}

type CreateLeadRequest struct {
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Status          string   `json:"status"`
	Budget          string   `json:"budget"`
	AssignedAgentID *uint    `json:"assigned_agent_id"`
	Tags            []string `json:"tags"`
}

type CreateActionRequest struct {
	ActionType    string     `json:"action_type" validate:"required"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Notes         string     `json:"notes"`
}

// CreateLead registers a new contact. Email is optional (phone-only
// leads exist) but must be well-formed when present.
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var req CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if req.Email != "" {
		if err := checkmail.ValidateFormat(req.Email); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
		}
	}

	if req.Status == "" {
		req.Status = "New"
	}
	lead := models.Lead{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Status:          req.Status,
		Budget:          req.Budget,
		AssignedAgentID: req.AssignedAgentID,
	}
	for _, tag := range req.Tags {
		lead.Tags = append(lead.Tags, models.LeadTag{Tag: tag})
	}

	if err := lc.DB.Create(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create lead", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(lead))
}

// GetLeads lists leads, optionally filtered by status
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	var leads []models.Lead
	q := lc.DB.Preload("Tags")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&leads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list leads", err)
	}
	return c.JSON(utils.SuccessResponse(leads))
}

// GetLead returns one lead with its full action history
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	var lead models.Lead
	err := lc.DB.Preload("Tags").Preload("Actions").Preload("Activities").
		First(&lead, c.Params("id")).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

// UpdateLeadStatus moves a lead through the pipeline and stamps the
// contact time.
func (lc *LeadController) UpdateLeadStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := lc.DB.First(&lead, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	if err := lc.DB.Model(&lead).Updates(map[string]interface{}{
		"status":            req.Status,
		"last_contacted_at": time.Now(),
	}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update lead", err)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

// CreateAction appends a manual task to a lead's history
func (lc *LeadController) CreateAction(c *fiber.Ctx) error {
	var req CreateActionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := lc.DB.First(&lead, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	action := models.Action{
		LeadID:        lead.ID,
		Kind:          models.ActionKindManual,
		ActionType:    req.ActionType,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
	}
	if err := lc.DB.Create(&action).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create action", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(action))
}

// CompleteAction marks a task done. Completion is write-once; a second
// call is rejected.
func (lc *LeadController) CompleteAction(c *fiber.Ctx) error {
	var action models.Action
	err := lc.DB.Where("id = ? AND lead_id = ?", c.Params("actionID"), c.Params("id")).
		First(&action).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Action not found", nil)
	}
	if action.CompletedDate != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Action already completed", nil)
	}

	now := time.Now()
	if err := lc.DB.Model(&action).Update("completed_date", now).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to complete action", err)
	}
	// Completing any task counts as contact.
	lc.DB.Model(&models.Lead{}).Where("id = ?", action.LeadID).
		Update("last_contacted_at", now)

	return c.JSON(utils.SuccessResponse(action))
}

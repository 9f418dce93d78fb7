package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/config"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/utils"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Login authenticates an agent and issues an access/refresh token pair
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var agent models.Agent
	if err := config.DB.Where("email = ?", req.Email).First(&agent).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(req.Password)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}
	if !agent.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", nil)
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&agent)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to issue tokens", err)
	}

	record := models.RefreshToken{
		AgentID:   agent.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := config.DB.Create(&record).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to persist session", err)
	}

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"agent": fiber.Map{
			"id":    agent.ID,
			"name":  agent.Name,
			"email": agent.Email,
		},
	})
}

// RefreshToken exchanges a valid refresh token for a fresh pair
func RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", nil)
	}

	var record models.RefreshToken
	if err := config.DB.Where("token = ? AND revoked = ?", req.RefreshToken, false).First(&record).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unknown refresh token", nil)
	}
	if time.Now().After(record.ExpiresAt) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token expired", nil)
	}

	var agent models.Agent
	if err := config.DB.First(&agent, claims.AgentID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Agent not found", nil)
	}
	if claims.TokenVersion != agent.TokenVersion {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token version", nil)
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&agent)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to issue tokens", err)
	}

	config.DB.Model(&record).Update("revoked", true)
	config.DB.Create(&models.RefreshToken{
		AgentID:   agent.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	})

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout revokes every session of the current agent by bumping the token
// version.
func Logout(c *fiber.Ctx) error {
	agent := c.Locals("agent").(*models.Agent)

	if err := config.DB.Model(agent).Update("token_version", agent.TokenVersion+1).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to log out", err)
	}
	config.DB.Model(&models.RefreshToken{}).
		Where("agent_id = ?", agent.ID).
		Update("revoked", true)

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// GetCurrentAgent returns the authenticated agent's profile
func GetCurrentAgent(c *fiber.Ctx) error {
	agent := c.Locals("agent").(*models.Agent)
	return c.JSON(fiber.Map{
		"id":    agent.ID,
		"name":  agent.Name,
		"email": agent.Email,
	})
}

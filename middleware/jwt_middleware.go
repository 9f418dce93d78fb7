package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/config"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/utils"
)

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies("access_token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authorization required",
				})
			}
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		var agent models.Agent
		if err := config.DB.First(&agent, claims.AgentID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Agent not found",
			})
		}

		if !agent.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account is not active",
			})
		}

		// Revoked sessions carry a stale token version.
		if claims.TokenVersion != agent.TokenVersion {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token version",
			})
		}

		c.Locals("agent", &agent)
		c.Locals("agentID", agent.ID)

		return c.Next()
	}
}

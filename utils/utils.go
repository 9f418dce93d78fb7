package utils

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(agentID uint, path string) string {
	return fmt.Sprintf("rl:%d:%s", agentID, path)
}

// ErrorResponse creates a standardized error response
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}

package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "github.com/pierreaxel1988/crm-gadait-international-sub002/controllers"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/middleware"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
)

// SetupRoutes wires the full HTTP surface: auth, leads/actions, worklist
// and sequence control.
func SetupRoutes(app *fiber.App, db *gorm.DB, store scheduler.Store, runner *scheduler.BatchRunner, log *logrus.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Get("/me", controller.GetCurrentAgent)

	leadController := controller.NewLeadController(db, log)
	worklistController := controller.NewWorklistController(db, log)
	sequenceController := controller.NewSequenceController(db, store, runner, log)

	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Worklist
	api.Get("/worklist", worklistController.GetWorklist)

	// Leads and actions
	lead := api.Group("/leads")
	lead.Post("/", leadController.CreateLead)
	lead.Get("/", leadController.GetLeads)
	lead.Get("/:id", leadController.GetLead)
	lead.Put("/:id/status", leadController.UpdateLeadStatus)
	lead.Post("/:id/actions", leadController.CreateAction)
	lead.Put("/:id/actions/:actionID/complete", leadController.CompleteAction)

	// Drip sequences
	lead.Get("/:id/sequence", sequenceController.GetSequence)
	lead.Post("/:id/sequence", sequenceController.StartSequence)
	lead.Delete("/:id/sequence", sequenceController.CancelSequence)

	// Manual batch trigger, throttled
	api.Post("/batch/run", middleware.BatchTriggerRateLimiter(), sequenceController.RunBatch)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}

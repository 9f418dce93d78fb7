package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/config"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/middleware"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/routes"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/store"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/utils"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/worker"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if config.AppConfig.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Initialize Sentry for error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Warnf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Build the scheduling engine
	crmStore := store.NewGormStore(config.DB)
	mailer := utils.NewMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		config.AppConfig.FromEmail,
		config.AppConfig.FromName,
	)
	personalizer := utils.NewPersonalizer(
		config.AppConfig.OpenAIAPIKey,
		config.AppConfig.OpenAIModel,
		logger,
	)
	runner := scheduler.NewBatchRunner(crmStore, mailer, personalizer, logger, scheduler.BatchRunnerConfig{
		CampaignID:  config.AppConfig.BatchCampaignID,
		Concurrency: config.AppConfig.BatchConcurrency,
		SendTimeout: time.Duration(config.AppConfig.BatchSendTimeout) * time.Second,
		ClaimLease:  time.Duration(config.AppConfig.BatchClaimLeaseMinutes) * time.Minute,
	})

	// Start background workers
	sequenceWorker := worker.NewSequenceWorker(runner, config.AppConfig.BatchCronSpec, logger)
	if err := sequenceWorker.Start(); err != nil {
		logger.Fatalf("Failed to start sequence worker: %v", err)
	}
	defer sequenceWorker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	replyWorker := worker.NewReplyWorker(config.DB, crmStore, worker.ReplyWorkerConfig{
		Host:     config.AppConfig.IMAPHost,
		Port:     config.AppConfig.IMAPPort,
		Username: config.AppConfig.IMAPUsername,
		Password: config.AppConfig.IMAPPassword,
		Mailbox:  config.AppConfig.IMAPMailbox,
		Interval: time.Duration(config.AppConfig.ReplyPollMinutes) * time.Minute,
	}, logger)
	go replyWorker.Start(ctx)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(app, config.DB, crmStore, runner, logger)

	// Start server
	logger.Infof("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

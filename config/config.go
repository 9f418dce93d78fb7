package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	JWTSecret string `json:"-"`
	SentryDSN string `json:"-"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"-"`
	FromEmail    string `json:"from_email"`
	FromName     string `json:"from_name"`

	IMAPHost     string `json:"imap_host"`
	IMAPPort     int    `json:"imap_port"`
	IMAPUsername string `json:"imap_username"`
	IMAPPassword string `json:"-"`
	IMAPMailbox  string `json:"imap_mailbox"`

	OpenAIAPIKey string `json:"-"`
	OpenAIModel  string `json:"openai_model"`

	// Batch runner tuning
	BatchCronSpec          string `json:"batch_cron_spec"`
	BatchConcurrency       int    `json:"batch_concurrency"`
	BatchSendTimeout       int    `json:"batch_send_timeout_seconds"`
	BatchClaimLeaseMinutes int    `json:"batch_claim_lease_minutes"`
	BatchCampaignID        uint   `json:"batch_campaign_id"`

	ReplyPollMinutes int `json:"reply_poll_minutes"`

	RateLimitBatchTrigger int `json:"rate_limit_batch_trigger"`

	Redis RedisConfig `json:"redis"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "gadait_crm"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		JWTSecret: getEnv("JWT_SECRET", ""),
		SentryDSN: getEnv("SENTRY_DSN", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "contact@gadait-international.com"),
		FromName:     getEnv("FROM_NAME", "Gadait International"),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvAsInt("IMAP_PORT", 993),
		IMAPUsername: getEnv("IMAP_USERNAME", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMailbox:  getEnv("IMAP_MAILBOX", "INBOX"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", ""),

		BatchCronSpec:          getEnv("BATCH_CRON_SPEC", "*/5 * * * *"),
		BatchConcurrency:       getEnvAsInt("BATCH_CONCURRENCY", 4),
		BatchSendTimeout:       getEnvAsInt("BATCH_SEND_TIMEOUT_SECONDS", 30),
		BatchClaimLeaseMinutes: getEnvAsInt("BATCH_CLAIM_LEASE_MINUTES", 10),
		BatchCampaignID:        uint(getEnvAsInt("BATCH_CAMPAIGN_ID", 0)),

		ReplyPollMinutes: getEnvAsInt("REPLY_POLL_MINUTES", 5),

		RateLimitBatchTrigger: getEnvAsInt("RATE_LIMIT_BATCH_TRIGGER", 2),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if AppConfig.Environment == "production" && AppConfig.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required in production")
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Batch: %q concurrency=%d campaign=%d",
		AppConfig.BatchCronSpec,
		AppConfig.BatchConcurrency,
		AppConfig.BatchCampaignID)
}

func migrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Agent{},
		&models.RefreshToken{},
		&models.Lead{},
		&models.LeadTag{},
		&models.Action{},
		&models.LeadActivity{},
		&models.Campaign{},
		&models.EmailSequence{},
	); err != nil {
		return err
	}
	return models.CreateDefaultCampaign(db)
}

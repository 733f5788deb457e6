package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	WhatsApp    WhatsAppConfig
	Sheets      SheetsConfig
	Requisition RequisitionConfig
	MongoDB     MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	VerifyToken    string
	BaseURL        string
	APIVersion     string
	AlertRecipient string
}

// Enabled reports whether enough credentials are present to send messages.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	LedgerSheet     string
}

// RequisitionConfig holds the low-stock scheduler settings.
type RequisitionConfig struct {
	CronSchedule   string
	ReportSchedule string
	Timezone       string
}

// Location resolves the configured timezone.
func (c RequisitionConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: os.Getenv("LOG_DEVELOPMENT") == "true",
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:    os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertRecipient: os.Getenv("WHATSAPP_ALERT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			LedgerSheet:     getenvWithDefault("LEDGER_SHEET_NAME", "Inventory"),
		},
		Requisition: RequisitionConfig{
			CronSchedule:   getenvWithDefault("REQUISITION_CRON_SCHEDULE", "0 7 * * *"),
			ReportSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 18 * * 5"),
			Timezone:       getenvWithDefault("TIMEZONE", "Asia/Seoul"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "facility_ledger"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
	}

	if c.Sheets.LedgerSheet == "" {
		return errors.New("LEDGER_SHEET_NAME must not be empty")
	}

	// WhatsApp is optional, but a half-configured client is a mistake.
	if c.WhatsApp.AccessToken != "" || c.WhatsApp.PhoneNumberID != "" {
		switch {
		case c.WhatsApp.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided")
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Requisition.CronSchedule == "" {
		return errors.New("REQUISITION_CRON_SCHEDULE must be provided")
	}

	if _, err := c.Requisition.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.MongoDB.URI == "" || c.MongoDB.DBName == "" {
		return errors.New("MONGODB_URI and MONGODB_DB_NAME must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

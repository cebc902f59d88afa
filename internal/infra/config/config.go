package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	// Hostaway reservation API
	HostawayAPIKey  string
	HostawayBaseURL string

	// NocoDB row-store (reminder dedup tables)
	DBAPIKey        string
	RemindersAPIURL string

	// Wazzup messaging gateway
	AccessToken     string
	WazzupBaseURL   string
	WazzupChannelID string
	WazzupCRMUserID string

	// Alerting + checkout relay webhooks (optional)
	SlackWebhookURL      string
	AutomationWebhookURL string

	HTTPAddr       string
	ReconcileDelay time.Duration

	CronSpecRegistrations string
	CronSpecVerifications string
	CronSpecArrivals      string
	CronSpecCheckout      string

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.HostawayAPIKey = os.Getenv("HOSTAWAY_API_KEY")
	if cfg.HostawayAPIKey == "" {
		return nil, fmt.Errorf("HOSTAWAY_API_KEY is not set")
	}

	cfg.HostawayBaseURL = os.Getenv("HOSTAWAY_BASE_URL")
	if cfg.HostawayBaseURL == "" {
		cfg.HostawayBaseURL = "https://api.hostaway.com/v1"
	}

	cfg.DBAPIKey = os.Getenv("DB_API_KEY")
	if cfg.DBAPIKey == "" {
		return nil, fmt.Errorf("DB_API_KEY is not set")
	}

	cfg.RemindersAPIURL = os.Getenv("API_REMINDERS_URL")
	if cfg.RemindersAPIURL == "" {
		return nil, fmt.Errorf("API_REMINDERS_URL is not set")
	}

	cfg.AccessToken = os.Getenv("ACCESS_TOKEN")
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN is not set")
	}

	cfg.WazzupBaseURL = os.Getenv("WAZZUP_BASE_URL")
	if cfg.WazzupBaseURL == "" {
		cfg.WazzupBaseURL = "https://api.wazzup24.com/v3"
	}

	cfg.WazzupChannelID = os.Getenv("WAZZUP_CHANNEL_ID")
	if cfg.WazzupChannelID == "" {
		return nil, fmt.Errorf("WAZZUP_CHANNEL_ID is not set")
	}

	cfg.WazzupCRMUserID = os.Getenv("WAZZUP_CRM_USER_ID")
	if cfg.WazzupCRMUserID == "" {
		return nil, fmt.Errorf("WAZZUP_CRM_USER_ID is not set")
	}

	// Optional: without a Slack webhook alerts are logged only; without an
	// automation webhook the checkout relay endpoint reports a configuration error.
	cfg.SlackWebhookURL = os.Getenv("SLACK_API")
	cfg.AutomationWebhookURL = os.Getenv("AUTOMATION_WEBHOOK_URL")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}

	delayStr := os.Getenv("RECONCILE_DELAY")
	if delayStr == "" {
		cfg.ReconcileDelay = 15 * time.Minute
	} else {
		d, err := time.ParseDuration(delayStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RECONCILE_DELAY: %w", err)
		}
		cfg.ReconcileDelay = d
	}

	cfg.CronSpecRegistrations = os.Getenv("CRON_SPEC_REGISTRATIONS")
	if cfg.CronSpecRegistrations == "" {
		cfg.CronSpecRegistrations = "0 8,14,20 * * *" // Default: 08:00, 14:00, 20:00
	}

	cfg.CronSpecVerifications = os.Getenv("CRON_SPEC_VERIFICATIONS")
	if cfg.CronSpecVerifications == "" {
		cfg.CronSpecVerifications = "0 8,14,20 * * *"
	}

	cfg.CronSpecArrivals = os.Getenv("CRON_SPEC_ARRIVALS")
	if cfg.CronSpecArrivals == "" {
		cfg.CronSpecArrivals = "0 * * * *" // Default: hourly, arrival deadlines are hour-granular
	}

	cfg.CronSpecCheckout = os.Getenv("CRON_SPEC_CHECKOUT")
	if cfg.CronSpecCheckout == "" {
		cfg.CronSpecCheckout = "0 12 * * *" // Default: noon daily
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all bot configuration.
type Config struct {
	TelegramToken   string
	SheetWebAppURL  string
	SupportUsername string
	BookingURL      string
	RootURL         string
	Port            int
	Mode            string // "polling" or "webhook"

	LeadsBackend   string // "json", "sqlite" or "memory"
	LeadsFile      string
	LeadsSQLiteDSN string

	SessionsBackend    string // "memory" or "redis"
	RedisAddr          string
	RedisPassword      string
	SessionIdleTimeout time.Duration // 0 disables expiry

	AdminChatIDs map[int64]struct{}
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SupportUsername: "@support",
		BookingURL:      "https://calendly.com/digitalmarketingacademy",
		RootURL:         "https://digitalmarketingacademy-bot.onrender.com",
		Port:            10000,
		Mode:            "polling",
		LeadsBackend:    "json",
		LeadsFile:       "leads.json",
		LeadsSQLiteDSN:  "leads.db",
		SessionsBackend: "memory",
		RedisAddr:       "localhost:6379",
		AdminChatIDs:    map[int64]struct{}{},
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	cfg.SheetWebAppURL = os.Getenv("SHEET_WEBAPP_URL")

	if v := os.Getenv("SUPPORT_USERNAME"); v != "" {
		cfg.SupportUsername = v
	}
	if v := os.Getenv("BOOKING_URL"); v != "" {
		cfg.BookingURL = v
	}
	if v := os.Getenv("ROOT_URL"); v != "" {
		cfg.RootURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("MODE"); v != "" {
		switch v {
		case "polling", "webhook":
			cfg.Mode = v
		default:
			return nil, fmt.Errorf("invalid MODE: must be 'polling' or 'webhook'")
		}
	}

	if v := os.Getenv("LEADS_BACKEND"); v != "" {
		switch v {
		case "json", "sqlite", "memory":
			cfg.LeadsBackend = v
		default:
			return nil, fmt.Errorf("invalid LEADS_BACKEND: must be 'json', 'sqlite' or 'memory'")
		}
	}
	if v := os.Getenv("LEADS_FILE"); v != "" {
		cfg.LeadsFile = v
	}
	if v := os.Getenv("LEADS_SQLITE_DSN"); v != "" {
		cfg.LeadsSQLiteDSN = v
	}

	if v := os.Getenv("SESSIONS_BACKEND"); v != "" {
		switch v {
		case "memory", "redis":
			cfg.SessionsBackend = v
		default:
			return nil, fmt.Errorf("invalid SESSIONS_BACKEND: must be 'memory' or 'redis'")
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	// Minutes, matching how the abandoned-flow expiry is discussed with the
	// academy team. 0 keeps sessions forever.
	if v := os.Getenv("SESSION_IDLE_TIMEOUT"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins < 0 {
			return nil, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: %q", v)
		}
		cfg.SessionIdleTimeout = time.Duration(mins) * time.Minute
	}

	cfg.AdminChatIDs = ParseAdminIDs(os.Getenv("ADMIN_CHAT_IDS"))

	return cfg, nil
}

// ParseAdminIDs parses a comma-separated chat ID list; malformed entries
// are skipped.
func ParseAdminIDs(raw string) map[int64]struct{} {
	ids := map[int64]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// WebhookPath is the token-scoped webhook route, shared by the HTTP server
// and the webhook registration command.
func (c *Config) WebhookPath() string {
	return "/webhook/" + c.TelegramToken
}

// WebhookURL is the public webhook endpoint derived from RootURL.
func (c *Config) WebhookURL() string {
	return c.RootURL + c.WebhookPath()
}

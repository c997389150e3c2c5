package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setToken(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
}

func TestLoadDefaults(t *testing.T) {
	setToken(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, 10000, cfg.Port)
	assert.Equal(t, "polling", cfg.Mode)
	assert.Equal(t, "json", cfg.LeadsBackend)
	assert.Equal(t, "leads.json", cfg.LeadsFile)
	assert.Equal(t, "memory", cfg.SessionsBackend)
	assert.Equal(t, time.Duration(0), cfg.SessionIdleTimeout)
	assert.Empty(t, cfg.AdminChatIDs)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
}

func TestLoadOverrides(t *testing.T) {
	setToken(t)
	t.Setenv("MODE", "webhook")
	t.Setenv("PORT", "8080")
	t.Setenv("ROOT_URL", "https://bot.example.com/")
	t.Setenv("LEADS_BACKEND", "sqlite")
	t.Setenv("SESSIONS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SESSION_IDLE_TIMEOUT", "30")
	t.Setenv("ADMIN_CHAT_IDS", "100, 200,bad,300")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "webhook", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://bot.example.com", cfg.RootURL)
	assert.Equal(t, "sqlite", cfg.LeadsBackend)
	assert.Equal(t, "redis", cfg.SessionsBackend)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, map[int64]struct{}{100: {}, 200: {}, 300: {}}, cfg.AdminChatIDs)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"MODE":                 "carrier-pigeon",
		"PORT":                 "eighty",
		"LEADS_BACKEND":        "postgres",
		"SESSIONS_BACKEND":     "file",
		"SESSION_IDLE_TIMEOUT": "-5",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setToken(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestWebhookPathAndURL(t *testing.T) {
	cfg := &Config{TelegramToken: "123:abc", RootURL: "https://bot.example.com"}
	assert.Equal(t, "/webhook/123:abc", cfg.WebhookPath())
	assert.Equal(t, "https://bot.example.com/webhook/123:abc", cfg.WebhookURL())
}

func TestParseAdminIDs(t *testing.T) {
	assert.Empty(t, ParseAdminIDs(""))
	assert.Equal(t, map[int64]struct{}{1: {}, 2: {}}, ParseAdminIDs("1,2"))
	assert.Equal(t, map[int64]struct{}{7: {}}, ParseAdminIDs(" 7 , oops ,"))
}

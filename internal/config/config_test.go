package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", " abc ")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Telegram.Token)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "database/tasks.db", cfg.Database.URL)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "08:00", cfg.Schedule.ReminderTime)
	assert.Equal(t, 4, cfg.Bot.Workers)
	assert.Equal(t, 20*time.Second, cfg.AI.SuggestionInterval)
	assert.False(t, cfg.AI.Enabled())
	require.NoError(t, cfg.RequireTelegram())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/tasks")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BOT_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, 8, cfg.Bot.Workers)
}

func TestLoadBotTokenFallback(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TOKEN", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Telegram.Token)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string][2]string{
		"driver":   {"DATABASE_DRIVER", "mysql"},
		"store":    {"SESSION_STORE", "disk"},
		"reminder": {"REMINDER_TIME", "8am"},
		"idle":     {"SESSION_IDLE_TIMEOUT", "0s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestRequireTelegram(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.RequireTelegram())
}

func TestScheduleLocationFallback(t *testing.T) {
	assert.Equal(t, time.Local, ScheduleConfig{Timezone: "Nowhere/Land"}.Location())
	assert.Equal(t, time.Local, ScheduleConfig{}.Location())
}

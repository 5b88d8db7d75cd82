package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the bot.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AI       AIConfig       `mapstructure:"ai"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConfig struct {
	Store       string        `mapstructure:"store"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AIConfig configures the OpenAI-backed assistant. An empty APIKey disables it.
type AIConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	ChatModel          string        `mapstructure:"chat_model"`
	TTSVoice           string        `mapstructure:"tts_voice"`
	Language           string        `mapstructure:"language"`
	Timeout            time.Duration `mapstructure:"timeout"`
	AudioDir           string        `mapstructure:"audio_dir"`
	SuggestionInterval time.Duration `mapstructure:"suggestion_interval"`
	SuggestionBurst    int           `mapstructure:"suggestion_burst"`
}

func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

type ScheduleConfig struct {
	Timezone     string `mapstructure:"timezone"`
	ReminderTime string `mapstructure:"reminder_time"`
}

// Location resolves Timezone, falling back to the process-local zone.
func (c ScheduleConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type BotConfig struct {
	Workers int `mapstructure:"workers"`
}

// Load reads configuration from .env, the environment and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "database/tasks.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.idle_timeout", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ai.chat_model", "gpt-4o-mini")
	v.SetDefault("ai.tts_voice", "nova")
	v.SetDefault("ai.language", "pt")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.audio_dir", "/tmp/taskbot_audio")
	v.SetDefault("ai.suggestion_interval", "20s")
	v.SetDefault("ai.suggestion_burst", 2)

	v.SetDefault("schedule.timezone", "Europe/Lisbon")
	v.SetDefault("schedule.reminder_time", "08:00")

	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("bot.workers", 4)
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"database.driver":         "DATABASE_DRIVER",
		"database.url":            "DATABASE_URL",
		"database.max_open_conns": "DB_MAX_OPEN_CONNS",
		"database.max_idle_conns": "DB_MAX_IDLE_CONNS",
		"database.auto_migrate":   "DB_AUTO_MIGRATE",

		"logger.level":  "LOG_LEVEL",
		"logger.format": "LOG_FORMAT",

		"session.store":        "SESSION_STORE",
		"session.idle_timeout": "SESSION_IDLE_TIMEOUT",

		"redis.addr":     "REDIS_ADDR",
		"redis.password": "REDIS_PASSWORD",
		"redis.db":       "REDIS_DB",

		"ai.api_key":             "OPENAI_API_KEY",
		"ai.chat_model":          "OPENAI_CHAT_MODEL",
		"ai.tts_voice":           "OPENAI_TTS_VOICE",
		"ai.language":            "AI_LANGUAGE",
		"ai.timeout":             "AI_TIMEOUT",
		"ai.audio_dir":           "AUDIO_DIR",
		"ai.suggestion_interval": "SUGGESTION_INTERVAL",
		"ai.suggestion_burst":    "SUGGESTION_BURST",

		"schedule.timezone":      "TIMEZONE",
		"schedule.reminder_time": "REMINDER_TIME",

		"metrics.addr": "METRICS_ADDR",

		"bot.workers": "BOT_WORKERS",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	// BOT_TOKEN is the older name.
	if err := v.BindEnv("telegram.token", "TELEGRAM_TOKEN", "BOT_TOKEN"); err != nil {
		return fmt.Errorf("bind BOT_TOKEN: %w", err)
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)
	cfg.Session.Store = strings.ToLower(strings.TrimSpace(cfg.Session.Store))
	cfg.AI.APIKey = strings.TrimSpace(cfg.AI.APIKey)
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 1
	}
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	switch cfg.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
	if cfg.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be positive")
	}
	if _, err := time.Parse("15:04", cfg.Schedule.ReminderTime); cfg.Schedule.ReminderTime != "" && err != nil {
		return fmt.Errorf("invalid reminder time %q, expected HH:MM", cfg.Schedule.ReminderTime)
	}
	return nil
}

// RequireTelegram checks the settings only the bot process needs.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

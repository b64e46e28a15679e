package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// RelayConfig describes the destinations of the anonymous relay.
type RelayConfig struct {
	// AdminIDs is the static allow-list of admin Telegram user IDs.
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"ADMIN_IDS"`
	// GroupID is an optional group destination for raw anonymous copies.
	GroupID int64 `yaml:"group_id" envconfig:"TARGET_GROUP_ID"`
	// ChannelID is an optional channel destination for vent posts.
	ChannelID int64 `yaml:"channel_id" envconfig:"TARGET_CHANNEL_ID"`
	// BotUsername (without @) is required only for deep-link buttons.
	BotUsername string `yaml:"bot_username" envconfig:"BOT_USERNAME"`
	// ChannelUsername (without @) is used for channel links in replies.
	ChannelUsername string `yaml:"channel_username" envconfig:"CHANNEL_USERNAME"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// StoreConfig selects and configures the key-value store backend.
type StoreConfig struct {
	Backend string `yaml:"backend" envconfig:"STORE_BACKEND"`

	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// PostgresConfig holds Postgres connection settings for the KV table backend.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StoreBackendRedis selects the Redis key-value backend.
	StoreBackendRedis = "redis"
	// StoreBackendPostgres selects the Postgres kv_entries table backend.
	StoreBackendPostgres = "postgres"
)

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Relay    RelayConfig    `yaml:"relay"`
	Store    StoreConfig    `yaml:"store"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if len(cfg.Relay.AdminIDs) == 0 {
		return fmt.Errorf("relay.admin_ids must list at least one admin")
	}
	for _, id := range cfg.Relay.AdminIDs {
		if id == 0 {
			return fmt.Errorf("relay.admin_ids must not contain zero entries")
		}
	}
	cfg.Relay.BotUsername = strings.TrimPrefix(strings.TrimSpace(cfg.Relay.BotUsername), "@")
	cfg.Relay.ChannelUsername = strings.TrimPrefix(strings.TrimSpace(cfg.Relay.ChannelUsername), "@")

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if backend == "" {
		backend = StoreBackendRedis
	}
	switch backend {
	case StoreBackendRedis:
		if strings.TrimSpace(cfg.Store.Redis.Addr) == "" {
			cfg.Store.Redis.Addr = "localhost:6379"
		}
	case StoreBackendPostgres:
		if strings.TrimSpace(cfg.Store.Postgres.Host) == "" {
			return fmt.Errorf("store.postgres.host is required when store.backend is 'postgres'")
		}
		if cfg.Store.Postgres.MaxConnections <= 0 {
			cfg.Store.Postgres.MaxConnections = 4
		}
	default:
		return fmt.Errorf("invalid store.backend %q; allowed: redis, postgres", cfg.Store.Backend)
	}
	cfg.Store.Backend = backend

	return nil
}

// IsAdmin reports whether the given user ID is in the static admin allow-list.
func (r RelayConfig) IsAdmin(userID int64) bool {
	for _, id := range r.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

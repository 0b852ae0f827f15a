package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config covers process-level settings read from environment variables.
// Slot definitions come separately from CLAIM_CONFIG / CLAIM_CONFIG_FILE.
type Config struct {
	Environment string `env:"CLAIM_ENV" envDefault:"development"`
	HTTPAddr    string `env:"CLAIM_HTTP_ADDR" envDefault:":8080"`

	SlotsJSON string `env:"CLAIM_CONFIG"`
	SlotsFile string `env:"CLAIM_CONFIG_FILE"`

	// Per-slot defaults, overridable per slot in the slot definitions.
	QueueCapacity    int `env:"QUEUE_CAPACITY" envDefault:"2"`
	ConfirmWindowSec int `env:"CONFIRM_WINDOW_SEC" envDefault:"45"`
	CooldownSec      int `env:"COOLDOWN_SEC" envDefault:"120"`

	// Optional history trail; disabled when empty.
	DatabaseURL string `env:"CLAIM_DATABASE_URL"`

	// Optional Redis announcement channel; disabled when addr is empty.
	RedisAddr     string `env:"CLAIM_REDIS_ADDR"`
	RedisPassword string `env:"CLAIM_REDIS_PASSWORD"`
	RedisDB       int    `env:"CLAIM_REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"CLAIM_REDIS_CHANNEL" envDefault:"claimed.announcements"`

	// Action surface rate limiting, per client key.
	RateLimitRPS   float64 `env:"CLAIM_RATE_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"CLAIM_RATE_BURST" envDefault:"10"`
}

// Load reads and validates process configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.QueueCapacity < 0 {
		return nil, fmt.Errorf("QUEUE_CAPACITY must be >= 0, got %d", cfg.QueueCapacity)
	}
	if cfg.ConfirmWindowSec < 5 {
		return nil, fmt.Errorf("CONFIRM_WINDOW_SEC must be >= 5, got %d", cfg.ConfirmWindowSec)
	}
	if cfg.CooldownSec < 0 {
		return nil, fmt.Errorf("COOLDOWN_SEC must be >= 0, got %d", cfg.CooldownSec)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("rate limit rps and burst must be > 0")
	}
	return cfg, nil
}

// SlotDefaults bundles the per-slot fallbacks slot parsing applies.
func (c *Config) SlotDefaults() SlotDefaults {
	return SlotDefaults{
		QueueCapacity: c.QueueCapacity,
		ConfirmWindow: time.Duration(c.ConfirmWindowSec) * time.Second,
		Cooldown:      time.Duration(c.CooldownSec) * time.Second,
	}
}

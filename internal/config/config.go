// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/mapspro"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	Zabbix ZabbixConfig

	// CacheTTL is how long a computed value (optical snapshot, lookup
	// result) stays valid in the shared cache.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`

	// Rate-limit gate: at most RateLimitMax requests per actor per
	// RateLimitWindow for guarded actions.
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"20"`

	// PrewarmInterval is the cadence of the periodic warm-all job.
	PrewarmInterval time.Duration `env:"PREWARM_INTERVAL" envDefault:"10m"`
}

// ZabbixConfig holds monitoring-server connection settings
type ZabbixConfig struct {
	URL      string `env:"ZABBIX_URL"`
	User     string `env:"ZABBIX_USER"`
	Password string `env:"ZABBIX_PASSWORD"`
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HasZabbix returns true if monitoring-server configuration is complete
func (c Config) HasZabbix() bool {
	return c.Zabbix.URL != "" && c.Zabbix.User != "" && c.Zabbix.Password != ""
}

// Validate ensures values the cache and rate-limit layers depend on are sane
func (c Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %s", c.RateLimitWindow)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.PrewarmInterval < time.Minute {
		return fmt.Errorf("PREWARM_INTERVAL must be at least 1m, got %s", c.PrewarmInterval)
	}
	return nil
}

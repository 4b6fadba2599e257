package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "REDIS_ADDR", "CACHE_TTL",
		"RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX", "PREWARM_INTERVAL",
		"ZABBIX_URL", "ZABBIX_USER", "ZABBIX_PASSWORD",
	} {
		// t.Setenv registers the restore; Unsetenv clears the value so
		// envDefault applies.
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %s, want 30s", cfg.CacheTTL)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %s, want 60s", cfg.RateLimitWindow)
	}
	if cfg.RateLimitMax != 20 {
		t.Errorf("RateLimitMax = %d, want 20", cfg.RateLimitMax)
	}
	if cfg.PrewarmInterval != 10*time.Minute {
		t.Errorf("PrewarmInterval = %s, want 10m", cfg.PrewarmInterval)
	}
	if cfg.HasZabbix() {
		t.Errorf("HasZabbix should be false without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("PREWARM_INTERVAL", "5m")
	t.Setenv("ZABBIX_URL", "http://zabbix.local")
	t.Setenv("ZABBIX_USER", "api")
	t.Setenv("ZABBIX_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %s, want 2m", cfg.CacheTTL)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %s, want 30s", cfg.RateLimitWindow)
	}
	if cfg.RateLimitMax != 5 {
		t.Errorf("RateLimitMax = %d, want 5", cfg.RateLimitMax)
	}
	if !cfg.HasZabbix() {
		t.Errorf("HasZabbix should be true with full credentials")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero cache ttl", "CACHE_TTL", "0s"},
		{"subsecond window", "RATE_LIMIT_WINDOW", "100ms"},
		{"zero limit", "RATE_LIMIT_MAX", "0"},
		{"too frequent prewarm", "PREWARM_INTERVAL", "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.SessionGrace != 120*time.Second {
		t.Fatalf("expected 120s session grace, got %s", cfg.SessionGrace)
	}
	if cfg.ValidateRetries != 2 {
		t.Fatalf("expected 2 retries, got %d", cfg.ValidateRetries)
	}
	if cfg.RetryDelay != 100*time.Millisecond {
		t.Fatalf("expected 100ms retry delay, got %s", cfg.RetryDelay)
	}
	if cfg.ProfileCacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %s", cfg.ProfileCacheTTL)
	}
	if cfg.DebounceWindow != 300*time.Millisecond {
		t.Fatalf("expected 300ms debounce, got %s", cfg.DebounceWindow)
	}
	if cfg.HealthInterval != 30*time.Second {
		t.Fatalf("expected 30s health interval, got %s", cfg.HealthInterval)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18080")
	t.Setenv("UPSTREAM_URL", "http://portal.internal:3000")
	t.Setenv("IDENTITY_BASE_URL", "https://id.example.com")
	t.Setenv("AUTH_COOKIE_PREFIX", "pg-auth")
	t.Setenv("VALIDATE_RETRIES", "4")
	t.Setenv("PROFILE_CACHE_TTL", "90s")
	t.Setenv("HEALTH_CHECK_INTERVAL_SECONDS", "10")

	cfg := Load()
	if cfg.HTTPAddr != ":18080" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.UpstreamURL != "http://portal.internal:3000" {
		t.Fatalf("expected UPSTREAM_URL override, got %s", cfg.UpstreamURL)
	}
	if cfg.IdentityBaseURL != "https://id.example.com" {
		t.Fatalf("expected IDENTITY_BASE_URL override, got %s", cfg.IdentityBaseURL)
	}
	if cfg.CookiePrefix != "pg-auth" {
		t.Fatalf("expected cookie prefix override, got %s", cfg.CookiePrefix)
	}
	if cfg.ValidateRetries != 4 {
		t.Fatalf("expected 4 retries, got %d", cfg.ValidateRetries)
	}
	if cfg.ProfileCacheTTL != 90*time.Second {
		t.Fatalf("expected 90s cache ttl, got %s", cfg.ProfileCacheTTL)
	}
	if cfg.HealthInterval != 10*time.Second {
		t.Fatalf("expected 10s health interval, got %s", cfg.HealthInterval)
	}
}

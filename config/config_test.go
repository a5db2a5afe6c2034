package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Errorf("expected development secret fallback")
	}
	if cfg.Cache.FilterTTL != 30*time.Minute || cfg.Cache.ResultTTL != 5*time.Minute {
		t.Errorf("unexpected cache TTLs: %v %v", cfg.Cache.FilterTTL, cfg.Cache.ResultTTL)
	}
	if !cfg.Database.AutoMigrate {
		t.Errorf("expected auto-migrate on by default")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CACHE_CAPACITY", "lots")
	t.Setenv("GEOCODER_DELAY", "soon")
	t.Setenv("DB_AUTO_MIGRATE", "maybe")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid values")
	}
	for _, key := range []string{"CACHE_CAPACITY", "GEOCODER_DELAY", "DB_AUTO_MIGRATE"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected error to mention %s: %v", key, err)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SEARCH_RATE_LIMIT", "7")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("PUBLIC_SITE_URL", "https://example.uz/")
	t.Setenv("LLM_API_KEY", "key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RateLimit.SearchPerMinute != 7 {
		t.Errorf("expected 7, got %d", cfg.RateLimit.SearchPerMinute)
	}
	if cfg.Database.AutoMigrate {
		t.Errorf("expected auto-migrate disabled")
	}
	if cfg.Server.PublicSiteURL != "https://example.uz" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Server.PublicSiteURL)
	}
	if !cfg.LLM.Enabled() {
		t.Errorf("expected LLM enabled")
	}
}

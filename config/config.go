package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Cache     CacheConfig
	Geocoder  GeocoderConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Environment string
	LogLevel    string
}

type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	PublicSiteURL string
}

type DatabaseConfig struct {
	// DSN is a Postgres connection string. Empty selects the local SQLite file.
	DSN             string
	SQLitePath      string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type LLMConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether natural-language parsing can call the model.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

type CacheConfig struct {
	RedisAddr string
	Capacity  int
	FilterTTL time.Duration
	ResultTTL time.Duration
}

type GeocoderConfig struct {
	APIKey string
	URL    string
	Delay  time.Duration
}

type RateLimitConfig struct {
	SearchPerMinute int
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string
	env := &envReader{errs: &errs}

	cfg := &Config{
		App: AppConfig{
			Environment: env.str("APP_ENV", EnvDevelopment),
			LogLevel:    env.str("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:          env.str("PORT", "8080"),
			ReadTimeout:   env.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  env.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:   env.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			PublicSiteURL: strings.TrimRight(env.str("PUBLIC_SITE_URL", "https://magit.uz"), "/"),
		},
		Database: DatabaseConfig{
			DSN:             env.str("DATABASE_URL", ""),
			SQLitePath:      env.str("SQLITE_PATH", "magit.db"),
			AutoMigrate:     env.boolean("DB_AUTO_MIGRATE", true),
			MaxOpenConns:    env.integer("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: env.str("JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			APIKey:  env.str("LLM_API_KEY", ""),
			APIURL:  env.str("LLM_API_URL", "https://api.openai.com/v1/chat/completions"),
			Model:   env.str("LLM_MODEL", "gpt-4o-mini"),
			Timeout: env.duration("LLM_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			RedisAddr: env.str("REDIS_ADDR", ""),
			Capacity:  env.integer("CACHE_CAPACITY", 500),
			FilterTTL: env.duration("CACHE_FILTER_TTL", 30*time.Minute),
			ResultTTL: env.duration("CACHE_RESULT_TTL", 5*time.Minute),
		},
		Geocoder: GeocoderConfig{
			APIKey: env.str("GEOCODER_API_KEY", ""),
			URL:    env.str("GEOCODER_URL", "https://geocode-maps.yandex.ru/1.x/"),
			Delay:  env.duration("GEOCODER_DELAY", 1100*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			SearchPerMinute: env.integer("SEARCH_RATE_LIMIT", 20),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.App.Environment != EnvDevelopment {
			errs = append(errs, "JWT_SECRET is required outside development")
		} else {
			cfg.Auth.JWTSecret = "dev-insecure-secret-change"
		}
	}
	if cfg.Cache.Capacity <= 0 {
		errs = append(errs, "CACHE_CAPACITY must be positive")
	}
	if cfg.RateLimit.SearchPerMinute <= 0 {
		errs = append(errs, "SEARCH_RATE_LIMIT must be positive")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

type envReader struct {
	errs *[]string
}

func (e *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: %q is not an integer", key, raw))
		return def
	}
	return v
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: %q is not a duration", key, raw))
		return def
	}
	return v
}

func (e *envReader) boolean(key string, def bool) bool {
	raw := strings.ToLower(e.str(key, ""))
	switch raw {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	*e.errs = append(*e.errs, fmt.Sprintf("%s: %q is not a boolean", key, raw))
	return def
}

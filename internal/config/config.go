package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config carries every tunable the engine reads at startup. Values come
// from the environment, optionally seeded from a .env file.
type Config struct {
	Addr string

	// Provider credentials and endpoint.
	ProviderBaseURL string
	ProviderKeyID   string
	ProviderKey     string
	ProviderTimeout time.Duration

	// Outbound throttle shared across all callers (provider account limit).
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Circuit breaker.
	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	// Cache TTLs per tier.
	SuggestionTTL  time.Duration
	SearchFreshTTL time.Duration
	SearchStaleTTL time.Duration
	ContentTTL     time.Duration
	ContentStale   time.Duration
	RuleTTL        time.Duration

	// Search behaviour.
	MaxResults int

	DatabaseURL string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:                ":" + getEnv("PORT", "8080"),
		ProviderBaseURL:     getEnv("PROVIDER_BASE_URL", "https://api.worldota.net/api/b2b/v3"),
		ProviderKeyID:       os.Getenv("PROVIDER_KEY_ID"),
		ProviderKey:         os.Getenv("PROVIDER_KEY"),
		ProviderTimeout:     getDuration("PROVIDER_TIMEOUT", 30*time.Second),
		RateLimitMax:        getInt("RATE_LIMIT_MAX", 10),
		RateLimitWindow:     getDuration("RATE_LIMIT_WINDOW", time.Minute),
		BreakerThreshold:    getInt("BREAKER_THRESHOLD", 5),
		BreakerResetTimeout: getDuration("BREAKER_RESET_TIMEOUT", time.Minute),
		SuggestionTTL:       getDuration("SUGGESTION_TTL", 24*time.Hour),
		SearchFreshTTL:      getDuration("SEARCH_FRESH_TTL", 15*time.Minute),
		SearchStaleTTL:      getDuration("SEARCH_STALE_TTL", 6*time.Hour),
		ContentTTL:          getDuration("CONTENT_TTL", 24*time.Hour),
		ContentStale:        getDuration("CONTENT_STALE_TTL", 7*24*time.Hour),
		RuleTTL:             getDuration("RULE_TTL", 24*time.Hour),
		MaxResults:          getInt("MAX_RESULTS", 0),
		DatabaseURL:         getEnv("DATABASE_URL", "postgres://localhost:5432/gaithtours?sslmode=disable"),
	}

	if cfg.ProviderKeyID == "" || cfg.ProviderKey == "" {
		return nil, fmt.Errorf("PROVIDER_KEY_ID and PROVIDER_KEY must be set")
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		return cast.ToInt(v)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d := cast.ToDuration(v); d > 0 {
			return d
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs, sourced from the environment.
// A .env file is honored for local development; real deployments set env vars.
type Config struct {
	Port        string
	DatabaseURL string
	CatalogPath string

	AdminJWTSecret string
	AdminJWTIssuer string

	// Abuse-control tuning
	ThrottleWindow time.Duration
	ThrottleMax    int
	SlotDailyCap   int

	// Optional shared master secret that satisfies any quest (testing/events)
	SharedSecret string

	// Reward-issuance collaborator
	IssuanceAPIKey       string
	IssuanceCollectionID string
	IssuanceEnv          string
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	// Best effort; absence of a .env file is the normal production case
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		CatalogPath:          getEnv("CATALOG_PATH", "catalog.yaml"),
		AdminJWTSecret:       os.Getenv("ADMIN_JWT_SECRET"),
		AdminJWTIssuer:       getEnv("ADMIN_JWT_ISSUER", "happybox-go"),
		ThrottleWindow:       time.Duration(parseEnvInt("THROTTLE_WINDOW_SECONDS", 60)) * time.Second,
		ThrottleMax:          parseEnvInt("THROTTLE_MAX_REQUESTS", 30),
		SlotDailyCap:         parseEnvInt("SLOT_DAILY_CAP", 500),
		SharedSecret:         os.Getenv("QR_SHARED_SECRET"),
		IssuanceAPIKey:       os.Getenv("ISSUANCE_API_KEY"),
		IssuanceCollectionID: os.Getenv("ISSUANCE_COLLECTION_ID"),
		IssuanceEnv:          getEnv("ISSUANCE_ENV", "staging"),
	}

	if cfg.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	if cfg.ThrottleWindow <= 0 || cfg.ThrottleMax <= 0 {
		return nil, fmt.Errorf("throttle window and max must be positive")
	}
	if cfg.SlotDailyCap <= 0 {
		return nil, fmt.Errorf("SLOT_DAILY_CAP must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

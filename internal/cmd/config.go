package main

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	StorageBackend  string // "postgres" or "memory"
	Database        DatabaseConfig
	NATSEnabled     bool
	NATSURL         string
	CatalogBaseURL  string
	CatalogAPIKey   string
	InviteEndpoint  string
	InviteAPIKey    string
	CategoryRules   string // path to the YAML rule file
	EnrichWorkers   int
	EnrichInterval  time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func loadConfig() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		StorageBackend: getEnv("STORAGE_BACKEND", "postgres"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "moviedraft"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		NATSEnabled:     getEnvAsBool("NATS_ENABLED", false),
		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		CatalogBaseURL:  getEnv("MOVIE_CATALOG_URL", ""),
		CatalogAPIKey:   getEnv("MOVIE_CATALOG_API_KEY", ""),
		InviteEndpoint:  getEnv("INVITE_ENDPOINT", ""),
		InviteAPIKey:    getEnv("INVITE_API_KEY", ""),
		CategoryRules:   getEnv("CATEGORY_RULES_FILE", "categories.yaml"),
		EnrichWorkers:   getEnvAsInt("ENRICH_WORKERS", 4),
		EnrichInterval:  getEnvAsDuration("ENRICH_INTERVAL", 30*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

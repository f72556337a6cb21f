package config

import (
	"os"
	"strconv"
	"time"

	"cad-exporter/core/models"
)

// Config holds the application configuration
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// CAD provider
	ProviderBaseURL   string
	ProviderAccessKey string
	ProviderSecretKey string

	// Export engine
	PollInterval time.Duration
	PollAttempts int
	MeshQuality  models.MeshQuality
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost/cad_exporter?sslmode=disable"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),

		ProviderBaseURL:   getEnv("ONSHAPE_BASE_URL", "https://cad.onshape.com"),
		ProviderAccessKey: getEnv("ONSHAPE_ACCESS_KEY", ""),
		ProviderSecretKey: getEnv("ONSHAPE_SECRET_KEY", ""),

		PollInterval: getEnvDuration("EXPORT_POLL_INTERVAL", 2*time.Second),
		PollAttempts: getEnvInt("EXPORT_POLL_ATTEMPTS", 90),
		MeshQuality: models.MeshQuality{
			MinFacetWidth:  getEnv("EXPORT_MIN_FACET_WIDTH", "0.0254"),
			AngleTolerance: getEnv("EXPORT_ANGLE_TOLERANCE", "0.1090830782496456"),
			ChordTolerance: getEnv("EXPORT_CHORD_TOLERANCE", "0.12"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

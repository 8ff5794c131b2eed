package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds process settings read from the environment.
type Config struct {
	Server struct {
		Port     int
		GRPCPort int
		Host     string
	}
	Monitor struct {
		Period      time.Duration
		AlertBuffer int
	}
	GroundStation struct {
		WebhookURL string
		Timeout    int // seconds
	}
	Logging struct {
		Level string
		File  string
	}
	Database struct {
		Enabled  bool
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Environment      string
	SystemConfigPath string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() *Config {
	cfg := &Config{}

	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.GRPCPort = getEnvInt("GRPC_PORT", 9090)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	cfg.Monitor.Period = time.Duration(getEnvInt("MONITOR_PERIOD_MS", 100)) * time.Millisecond
	cfg.Monitor.AlertBuffer = getEnvInt("ALERT_BUFFER", 64)

	// empty URL disables publishing
	cfg.GroundStation.WebhookURL = getEnv("GCS_WEBHOOK_URL", "")
	cfg.GroundStation.Timeout = getEnvInt("GCS_TIMEOUT_SECONDS", 5)

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "")

	cfg.Database.Enabled = getEnvBool("DB_ENABLED", true)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "boat_safety")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres123")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	cfg.Environment = getEnv("ENVIRONMENT", "development")
	cfg.SystemConfigPath = getEnv("SYSTEM_CONFIG_PATH", "")

	return cfg
}

// getEnv returns the variable value or the default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the variable parsed as int, or the default when unset or malformed.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
